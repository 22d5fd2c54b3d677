package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validChatBody = `{
  "createdVisualizations": {
    "objects": [{
      "title": "Revenue by region",
      "metrics": [{"id": "m1", "aggFunction": "sum"}],
      "dimensionality": [{"id": "d1"}]
    }]
  }
}`

func TestExtractVisualization(t *testing.T) {
	spec, err := ExtractVisualization(json.RawMessage(validChatBody))
	require.NoError(t, err)
	assert.Equal(t, "m1", spec.MetricID)
	assert.Equal(t, "sum", spec.Aggregation)
	assert.Equal(t, "d1", spec.DimensionID)
	assert.Equal(t, "Revenue by region", spec.Title)
	assert.Empty(t, spec.MetricType)
}

func TestExtractVisualizationMissingFields(t *testing.T) {
	cases := map[string]struct {
		body  string
		field string
	}{
		"no created visualizations": {
			body:  `{"textResponse": "sorry"}`,
			field: "createdVisualizations",
		},
		"empty objects": {
			body:  `{"createdVisualizations": {"objects": []}}`,
			field: "createdVisualizations.objects",
		},
		"no metrics": {
			body:  `{"createdVisualizations": {"objects": [{"dimensionality": [{"id": "d1"}]}]}}`,
			field: "createdVisualizations.objects[0].metrics",
		},
		"no aggregation": {
			body:  `{"createdVisualizations": {"objects": [{"metrics": [{"id": "m1"}], "dimensionality": [{"id": "d1"}]}]}}`,
			field: "createdVisualizations.objects[0].metrics[0].aggFunction",
		},
		"no dimensionality id": {
			body:  `{"createdVisualizations": {"objects": [{"metrics": [{"id": "m1", "aggFunction": "sum"}], "dimensionality": [{}]}]}}`,
			field: "createdVisualizations.objects[0].dimensionality[0].id",
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ExtractVisualization(json.RawMessage(tc.body))
			require.Error(t, err)
			assert.True(t, IsMissingField(err))
			assert.Equal(t, tc.field, MissingField(err))
		})
	}
}

func TestExtractVisualizationRejectsInvalidJSON(t *testing.T) {
	_, err := ExtractVisualization(json.RawMessage(`not json`))
	require.Error(t, err)
	assert.False(t, IsMissingField(err))
}

func TestBuildExecutionDefinition(t *testing.T) {
	def := BuildExecutionDefinition("gd_hackaton", VisualizationSpec{
		MetricID:    "m1",
		Aggregation: "sum",
		DimensionID: "d1",
	})
	assert.Equal(t, "gd_hackaton", def.WorkspaceID)
	require.Len(t, def.Attributes, 1)
	assert.Equal(t, "d1", def.Attributes[0].Label)
	require.Len(t, def.Measures, 1)
	assert.Equal(t, MeasureItem{LocalID: "m1", ItemID: "m1", ItemType: ItemTypeFact, Aggregation: "sum"}, def.Measures[0])
	assert.Equal(t, [][]string{{"d1"}, {MeasureGroup}}, def.Dimensions)
}

func TestBuildExecutionDefinitionMetricDropsAggregation(t *testing.T) {
	def := BuildExecutionDefinition("ws", VisualizationSpec{
		MetricID:    "revenue",
		MetricType:  ItemTypeMetric,
		Aggregation: "sum",
		DimensionID: "region",
	})
	require.Len(t, def.Measures, 1)
	assert.Equal(t, ItemTypeMetric, def.Measures[0].ItemType)
	assert.Empty(t, def.Measures[0].Aggregation)
}

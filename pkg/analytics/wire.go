package analytics

import (
	"encoding/json"
	"fmt"
	"strings"

	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

type entityAttributes struct {
	Name     string `json:"name,omitempty"`
	Title    string `json:"title,omitempty"`
	Type     string `json:"type,omitempty"`
	URL      string `json:"url,omitempty"`
	Schema   string `json:"schema,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

type entity struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	Attributes entityAttributes `json:"attributes"`
}

type entityList struct {
	Data []entity `json:"data"`
}

type dataSourceDocument struct {
	Data entity `json:"data"`
}

type scanRequest struct {
	Separator  string `json:"separator"`
	ScanTables bool   `json:"scanTables"`
	ScanViews  bool   `json:"scanViews"`
}

type scanResponse struct {
	PDM      json.RawMessage   `json:"pdm"`
	Warnings []json.RawMessage `json:"warnings"`
}

func (r scanResponse) toModel() dashboard.PhysicalModel {
	var tables struct {
		Tables []json.RawMessage `json:"tables"`
	}
	_ = json.Unmarshal(r.PDM, &tables)
	return dashboard.PhysicalModel{
		Raw:      r.PDM,
		Tables:   len(tables.Tables),
		Warnings: len(r.Warnings),
	}
}

type generateRequest struct {
	PDM             json.RawMessage `json:"pdm"`
	Separator       string          `json:"separator"`
	GrainPrefix     string          `json:"grainPrefix"`
	ReferencePrefix string          `json:"referencePrefix"`
	FactPrefix      string          `json:"factPrefix"`
}

type declarativeModel struct {
	LDM json.RawMessage `json:"ldm"`
}

func (d declarativeModel) toModel() (dashboard.LogicalModel, error) {
	if len(d.LDM) == 0 {
		return dashboard.LogicalModel{}, nil
	}
	var model dashboard.LogicalModel
	if err := json.Unmarshal(d.LDM, &model); err != nil {
		return dashboard.LogicalModel{}, fmt.Errorf("analytics: decode logical model: %w", err)
	}
	model.Raw = d.LDM
	return model, nil
}

type objectIdentifier struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type identifierRef struct {
	Identifier objectIdentifier `json:"identifier"`
}

type afmAttribute struct {
	LocalIdentifier string        `json:"localIdentifier"`
	Label           identifierRef `json:"label"`
}

type simpleMeasure struct {
	Item        identifierRef `json:"item"`
	Aggregation string        `json:"aggregation,omitempty"`
}

type measureDefinition struct {
	Measure simpleMeasure `json:"measure"`
}

type afmMeasure struct {
	LocalIdentifier string            `json:"localIdentifier"`
	Definition      measureDefinition `json:"definition"`
}

type afm struct {
	Attributes []afmAttribute `json:"attributes"`
	Measures   []afmMeasure   `json:"measures"`
	Filters    []any          `json:"filters"`
}

type resultDimension struct {
	LocalIdentifier string   `json:"localIdentifier"`
	ItemIdentifiers []string `json:"itemIdentifiers"`
}

type resultSpec struct {
	Dimensions []resultDimension `json:"dimensions"`
}

type executeRequest struct {
	Execution  afm        `json:"execution"`
	ResultSpec resultSpec `json:"resultSpec"`
}

func newExecuteRequest(def dashboard.ExecutionDefinition) executeRequest {
	req := executeRequest{Execution: afm{Filters: []any{}}}
	for _, attr := range def.Attributes {
		req.Execution.Attributes = append(req.Execution.Attributes, afmAttribute{
			LocalIdentifier: attr.LocalID,
			Label:           identifierRef{Identifier: objectIdentifier{ID: attr.Label, Type: "label"}},
		})
	}
	for _, m := range def.Measures {
		req.Execution.Measures = append(req.Execution.Measures, afmMeasure{
			LocalIdentifier: m.LocalID,
			Definition: measureDefinition{Measure: simpleMeasure{
				Item:        identifierRef{Identifier: objectIdentifier{ID: m.ItemID, Type: m.ItemType}},
				Aggregation: strings.ToUpper(m.Aggregation),
			}},
		})
	}
	for i, dim := range def.Dimensions {
		req.ResultSpec.Dimensions = append(req.ResultSpec.Dimensions, resultDimension{
			LocalIdentifier: fmt.Sprintf("dim_%d", i),
			ItemIdentifiers: append([]string(nil), dim...),
		})
	}
	return req
}

type executeResponse struct {
	ExecutionResponse struct {
		Links struct {
			ExecutionResult string `json:"executionResult"`
		} `json:"links"`
	} `json:"executionResponse"`
}

type attributeHeader struct {
	AttributeHeader *struct {
		LabelValue *string `json:"labelValue"`
	} `json:"attributeHeader,omitempty"`
}

type headerGroup struct {
	Headers []attributeHeader `json:"headers"`
}

type dimensionHeader struct {
	HeaderGroups []headerGroup `json:"headerGroups"`
}

type executionResult struct {
	Data             [][]*float64      `json:"data"`
	DimensionHeaders []dimensionHeader `json:"dimensionHeaders"`
}

// toFrame indexes rows by the first dimension's attribute values and names
// columns after the measures.
func (r executionResult) toFrame(def dashboard.ExecutionDefinition) dashboard.DataFrame {
	frame := dashboard.DataFrame{}
	if len(def.Attributes) > 0 {
		frame.IndexName = def.Attributes[0].Label
	}
	for _, m := range def.Measures {
		frame.Columns = append(frame.Columns, m.ItemID)
	}
	labels := r.rowLabels()
	for i, values := range r.Data {
		row := dashboard.FrameRow{Values: values}
		if i < len(labels) {
			row.Label = labels[i]
		}
		frame.Rows = append(frame.Rows, row)
	}
	return frame
}

func (r executionResult) rowLabels() []string {
	if len(r.DimensionHeaders) == 0 || len(r.DimensionHeaders[0].HeaderGroups) == 0 {
		return nil
	}
	headers := r.DimensionHeaders[0].HeaderGroups[0].Headers
	labels := make([]string, len(headers))
	for i, h := range headers {
		if h.AttributeHeader != nil && h.AttributeHeader.LabelValue != nil {
			labels[i] = *h.AttributeHeader.LabelValue
		}
	}
	return labels
}

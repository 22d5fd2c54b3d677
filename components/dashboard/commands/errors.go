package commands

import (
	goerrors "github.com/goliatone/go-errors"
	dashboard "github.com/pavel242242/gd-hackathon-2024/components/dashboard"
)

// badInput reports a message that cannot be executed as sent.
func badInput(message string) error {
	return goerrors.New(message, goerrors.CategoryBadInput).WithTextCode(dashboard.TextCodeMissingInput)
}

package tools

import (
	"context"
	"encoding/json"

	"github.com/meysamhadeli/guidescan/providers/models"
)

type terminateArgs struct {
	Message string `json:"message"`
	Cause   string `json:"cause"`
}

func terminateTool() models.Tool {
	return models.Tool{
		Name:        "terminate_process",
		Description: "Abort the whole run when the guidance cannot be applied safely. Use only for unrecoverable situations.",
		Params: []models.Param{
			{Name: "message", Type: models.ParamString, Description: "Explanation shown to the operator", Required: true},
			{Name: "cause", Type: models.ParamString, Description: "Underlying cause"},
		},
		Handler: func(ctx context.Context, args json.RawMessage, workingDir string) (string, error) {
			var a terminateArgs
			if err := decodeArgs(args, &a); err != nil {
				return "", err
			}
			if a.Message == "" {
				a.Message = "terminated by the model"
			}
			return "", &TerminateError{Message: a.Message, Cause: a.Cause}
		},
	}
}

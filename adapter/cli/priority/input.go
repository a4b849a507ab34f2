package priority

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/prioritiai/internal/prioritization/domain"
	"github.com/felixgeelhaar/prioritiai/internal/shared/infrastructure/security"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// readInputFile reads path, or stdin when path is "-".
func readInputFile(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return security.ReadLimited(cmd.InOrStdin(), security.MaxInputFileBytes)
	}
	data, err := security.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func decodeInputs(data []byte) ([]domain.TaskInput, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var inputs []domain.TaskInput
		if err := json.Unmarshal(data, &inputs); err != nil {
			return nil, fmt.Errorf("invalid task list: %w", err)
		}
		return inputs, nil
	}
	var input domain.TaskInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("invalid task: %w", err)
	}
	return []domain.TaskInput{input}, nil
}

// withDefaults fills the fields a command-line user rarely supplies.
func withDefaults(input domain.TaskInput, now time.Time) domain.TaskInput {
	if strings.TrimSpace(input.ID) == "" {
		input.ID = uuid.NewString()
	}
	if input.CreatedAt.IsZero() {
		input.CreatedAt = now
	}
	return input
}

func parseTime(flag, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid --%s %q, use RFC3339 or YYYY-MM-DD", flag, value)
}

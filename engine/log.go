package engine

import (
	"fmt"
	"time"

	"github.com/BaSui01/browserflow/action"
)

// FinalStatus is the definitive outcome of one workflow run.
type FinalStatus string

const (
	// StatusSuccess means every action completed successfully.
	StatusSuccess FinalStatus = "SUCCESS"
	// StatusFailed means the run aborted on a failure.
	StatusFailed FinalStatus = "FAILED"
	// StatusStopped means the run was cancelled by request.
	StatusStopped FinalStatus = "STOPPED"
	// StatusCompletedWithErrors means the run finished under
	// continue-on-error with at least one recorded failure.
	StatusCompletedWithErrors FinalStatus = "COMPLETED_WITH_ERRORS"
)

// ActionRecord is one entry of the run's audit trail: the action's identity
// plus its immutable result.
type ActionRecord struct {
	ActionName string         `json:"action_name"`
	ActionType string         `json:"action_type"`
	Result     *action.Result `json:"result"`
	Timestamp  time.Time      `json:"timestamp"`
}

// ExecutionLog is the structured record of one workflow run. It is created
// once per run, immutable after the run finishes, and persisted by an
// external reporting collaborator.
type ExecutionLog struct {
	ID              string         `json:"id"`
	WorkflowName    string         `json:"workflow_name"`
	StartTime       time.Time      `json:"start_time"`
	EndTime         time.Time      `json:"end_time"`
	DurationSeconds float64        `json:"duration_seconds"`
	FinalStatus     FinalStatus    `json:"final_status"`
	ErrorMessage    string         `json:"error_message,omitempty"`
	ActionResults   []ActionRecord `json:"action_results"`
	Summary         string         `json:"summary"`
	ErrorStrategy   string         `json:"error_strategy"`
}

// buildSummary renders the one-line human summary of a finished run.
func buildSummary(status FinalStatus, results []ActionRecord) string {
	succeeded := 0
	for _, r := range results {
		if r.Result.IsSuccess() {
			succeeded++
		}
	}
	return fmt.Sprintf("%s: %d/%d actions succeeded", status, succeeded, len(results))
}

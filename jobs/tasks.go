package jobs

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskQuotationPDFWarmup renders a finalized quotation into the PDF cache.
	TaskQuotationPDFWarmup = "quotation:pdf_warmup"
)

// QuotationPDFPayload identifies the quotation to render.
type QuotationPDFPayload struct {
	QuotationID int64 `json:"quotation_id"`
}

// NewQuotationPDFTask constructs the warmup task.
func NewQuotationPDFTask(quotationID int64) (*asynq.Task, error) {
	if quotationID <= 0 {
		return nil, fmt.Errorf("quotation pdf task: invalid id %d", quotationID)
	}
	data, err := json.Marshal(QuotationPDFPayload{QuotationID: quotationID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotationPDFWarmup, data), nil
}

package domain

import "time"

type PipelineOutcome string

const (
	PipelineOutcome_Success            PipelineOutcome = "success"
	PipelineOutcome_ResolutionNotFound PipelineOutcome = "resolution_not_found"
	PipelineOutcome_CollectionNotFound PipelineOutcome = "collection_not_found"
	PipelineOutcome_IOFailure          PipelineOutcome = "io_failure"
	PipelineOutcome_DeliveryFailure    PipelineOutcome = "delivery_failure"
)

type PipelineMetrics interface {
	IncInFlight()
	DecInFlight()
	ObserveRequest(outcome PipelineOutcome, duration time.Duration)
	AddItemsDownloaded(count int)
	ObserveArchiveSize(sizeInBytes int64)
	IncCleanupFailures()
}

type noopPipelineMetrics struct{}

func NewNoopPipelineMetrics() PipelineMetrics {
	return noopPipelineMetrics{}
}

func (noopPipelineMetrics) IncInFlight()                                    {}
func (noopPipelineMetrics) DecInFlight()                                    {}
func (noopPipelineMetrics) ObserveRequest(PipelineOutcome, time.Duration) {}
func (noopPipelineMetrics) AddItemsDownloaded(int)                         {}
func (noopPipelineMetrics) ObserveArchiveSize(int64)                       {}
func (noopPipelineMetrics) IncCleanupFailures()                            {}

package stage

import (
	"context"
	"fmt"

	"github.com/senzing-garage/redoer/internal/redotype"
	"github.com/senzing-garage/redoer/internal/transport"
)

// PublishOutput is the `publish-<bus>` Output role: info envelopes go
// to InfoPublisher, failed records go to FailurePublisher. Either may
// be nil if the pipeline topology has no use for it (e.g. apply-plain
// never calls SendInfo).
type PublishOutput struct {
	InfoPublisher    transport.Publisher
	FailurePublisher transport.Publisher
}

func (o PublishOutput) SendInfo(ctx context.Context, info redotype.Info) error {
	if o.InfoPublisher == nil {
		return fmt.Errorf("stage: publish output has no info publisher configured")
	}
	return o.InfoPublisher.Publish(ctx, redotype.Record(info))
}

func (o PublishOutput) SendFailure(ctx context.Context, record redotype.Record) error {
	if o.FailurePublisher == nil {
		return fmt.Errorf("stage: publish output has no failure publisher configured")
	}
	return o.FailurePublisher.Publish(ctx, record)
}

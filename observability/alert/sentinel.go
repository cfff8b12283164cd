package alert

import (
	"context"
	"fmt"
	"maps"

	"github.com/code19m/errx"
	sentinelpb "github.com/code19m/sentinel/pb"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/rise-and-shine/projectdocs/meta"
)

// sentinel reports errors to a Sentinel server over gRPC.
type sentinel struct {
	cfg     Config
	service string
	version string
	client  sentinelpb.SentinelServiceClient
	conn    *grpc.ClientConn
}

func newSentinel(cfg Config, service, version string) (*sentinel, error) {
	conn, err := grpc.NewClient(
		fmt.Sprintf("%s:%d", cfg.SentinelHost, cfg.SentinelPort),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	)
	if err != nil {
		return nil, errx.Wrap(err, errx.WithDetails(errx.D{
			"host": cfg.SentinelHost,
			"port": cfg.SentinelPort,
		}))
	}

	return &sentinel{
		cfg:     cfg,
		service: service,
		version: version,
		client:  sentinelpb.NewSentinelServiceClient(conn),
		conn:    conn,
	}, nil
}

// SendError sends the report detached from the cancellation of ctx, bounded
// by SendTimeout. The trace id and project id of ctx are added to details
// unless already present.
func (s *sentinel) SendError(ctx context.Context, errCode, msg, operation string, details map[string]string) error {
	d := make(map[string]string, len(details)+3)
	maps.Copy(d, details)
	d["service_version"] = s.version
	for _, k := range []meta.ContextKey{meta.TraceID, meta.RecordID} {
		if v := meta.Find(ctx, k); v != "" && d[string(k)] == "" {
			d[string(k)] = v
		}
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.SendTimeout)
	defer cancel()

	_, err := s.client.SendError(ctx, &sentinelpb.ErrorInfo{
		Code:      errCode,
		Message:   msg,
		Service:   s.service,
		Operation: operation,
		Details:   d,
	})
	return errx.Wrap(err, errx.WithDetails(errx.D{"alert_code": errCode}))
}

// Close releases the gRPC connection.
func (s *sentinel) Close() error {
	return s.conn.Close()
}

// Package telemetry ships recorded actions, playback progress and round
// results to InfluxDB. When the server is unreachable points go to a gzip
// line-protocol backup file instead; when disabled everything is a no-op.
package telemetry

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/influxdata/influxdb-client-go/v2/domain"
	"github.com/rs/zerolog"

	"github.com/joypaint/joypaint/internal/actionlog"
	"github.com/joypaint/joypaint/internal/config"
	"github.com/joypaint/joypaint/internal/replay"
	"github.com/joypaint/joypaint/internal/timedgame"
)

// retention is how long the bucket keeps points.
const retention = 60 * 60 * 24 * 90

// Sink writes points to one bucket.
type Sink struct {
	log    zerolog.Logger
	client influxdb2.Client
	writer influxdb2_api.WriteAPI

	mu         sync.Mutex
	backupFile *os.File
	backup     *gzip.Writer
}

// Disabled returns a Sink that drops everything.
func Disabled() *Sink {
	return &Sink{log: zerolog.Nop()}
}

// New connects to InfluxDB as configured. A failed health check falls back
// to the backup file when one is configured.
func New(cfg config.InfluxConfig, log zerolog.Logger) (*Sink, error) {
	s := &Sink{log: log.With().Str("component", "telemetry").Logger()}
	if !cfg.Enabled {
		return s, nil
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	running, err := client.Ping(ctx)
	if err != nil || !running {
		client.Close()
		if cfg.BackupPath == "" {
			s.log.Warn().Err(err).Str("url", cfg.URL).Msg("InfluxDB unreachable and no backup path, telemetry disabled")
			return s, nil
		}
		s.log.Warn().Err(err).Str("backupPath", cfg.BackupPath).Msg("InfluxDB unreachable, writing to backup file")
		file, err := os.OpenFile(cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("error creating backup file: %v", err)
		}
		s.backupFile = file
		s.backup = gzip.NewWriter(file)
		return s, nil
	}

	if err := ensureBucket(ctx, client, cfg.Org, cfg.Bucket, s.log); err != nil {
		client.Close()
		return nil, err
	}

	s.client = client
	s.writer = client.WriteAPI(cfg.Org, cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			s.log.Error().Err(writeErr).Str("bucket", cfg.Bucket).Msg("Error sending data to InfluxDB")
		}
	}(s.writer.Errors())

	s.log.Info().Str("url", cfg.URL).Str("bucket", cfg.Bucket).Msg("InfluxDB client initialized")
	return s, nil
}

func ensureBucket(ctx context.Context, client influxdb2.Client, orgName, bucket string, log zerolog.Logger) error {
	org, err := client.OrganizationsAPI().FindOrganizationByName(ctx, orgName)
	if err != nil {
		log.Info().Str("org", orgName).Msg("Organization not found, creating")
		org, err = client.OrganizationsAPI().CreateOrganizationWithName(ctx, orgName)
		if err != nil {
			return fmt.Errorf("create organization %s: %w", orgName, err)
		}
	}

	if _, err := client.BucketsAPI().FindBucketByName(ctx, bucket); err == nil {
		return nil
	}
	log.Info().Str("bucket", bucket).Msg("Bucket not found, creating")
	rule := domain.RetentionRuleTypeExpire
	_, err = client.BucketsAPI().CreateBucketWithName(ctx, org, bucket, domain.RetentionRule{
		Type:         &rule,
		EverySeconds: retention,
	})
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	return nil
}

// Enabled reports whether points go anywhere.
func (s *Sink) Enabled() bool {
	return s.writer != nil || s.backup != nil
}

func (s *Sink) write(p *influxdb2_write.Point) error {
	if s.writer != nil {
		s.writer.WritePoint(p)
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backup == nil {
		return nil
	}
	line := strings.TrimRight(influxdb2_write.PointToLineProtocol(p, time.Nanosecond), "\n")
	if _, err := s.backup.Write([]byte(line + "\n")); err != nil {
		return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
	}
	return nil
}

// WriteAction records one persisted action.
func (s *Sink) WriteAction(rec actionlog.Record) {
	if err := s.write(ActionPoint(rec)); err != nil {
		s.log.Error().Err(err).Msg("failed to write action point")
	}
}

// WriteProgress records a playback progress step.
func (s *Sink) WriteProgress(sessionID uint, p replay.Progress) {
	if err := s.write(ProgressPoint(sessionID, p, time.Now())); err != nil {
		s.log.Error().Err(err).Msg("failed to write progress point")
	}
}

// WriteRound records a finished timed round.
func (s *Sink) WriteRound(drawingKey string, r timedgame.Result) {
	if err := s.write(RoundPoint(drawingKey, r, time.Now())); err != nil {
		s.log.Error().Err(err).Msg("failed to write round point")
	}
}

// Close flushes pending points and releases the client or backup file.
func (s *Sink) Close() error {
	if s.writer != nil {
		s.writer.Flush()
		s.client.Close()
		s.writer = nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backup == nil {
		return nil
	}
	err := errors.Join(s.backup.Close(), s.backupFile.Close())
	s.backup = nil
	s.backupFile = nil
	return err
}

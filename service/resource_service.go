package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sandptel/trawl/config"
	"github.com/sandptel/trawl/errors"
	"github.com/sandptel/trawl/metric"
	"github.com/sandptel/trawl/natsclient"
	"github.com/sandptel/trawl/pkg/retry"
	"github.com/sandptel/trawl/resource"
)

// ResourceService serves the resource table over NATS request/reply and
// publishes change events.
type ResourceService struct {
	*BaseService

	cfg    *config.Config
	store  *resource.Store
	nats   *natsclient.Client
	prefix string

	metrics *metric.Metrics
	logger  *slog.Logger
}

// ResourceOption configures a ResourceService
type ResourceOption func(*ResourceService)

// WithMetrics sets the core metrics for operation recording
func WithMetrics(metrics *metric.Metrics) ResourceOption {
	return func(s *ResourceService) {
		s.metrics = metrics
	}
}

// WithServiceLogger sets a custom logger
func WithServiceLogger(logger *slog.Logger) ResourceOption {
	return func(s *ResourceService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewResourceService builds the service around a store constructed from
// the daemon configuration. The store's notifier publishes on the bus.
func NewResourceService(cfg *config.Config, client *natsclient.Client, opts ...ResourceOption) (*ResourceService, error) {
	if cfg == nil {
		return nil, errors.WrapFatal(errors.ErrMissingConfig, "ResourceService", "NewResourceService", "build service")
	}
	if client == nil {
		return nil, errors.WrapFatal(errors.ErrNotConnected, "ResourceService", "NewResourceService", "build service")
	}

	s := &ResourceService{
		cfg:    cfg,
		nats:   client,
		prefix: cfg.Service.SubjectPrefix,
		logger: slog.Default().With("service", cfg.Service.Name),
	}

	for _, opt := range opts {
		opt(s)
	}

	command := cfg.Preprocessor.Command
	if command == "" {
		command = resource.DefaultPreprocessorCommand
	}
	pre := resource.NewPreprocessor(command,
		resource.WithPreprocessorLogger(s.logger),
		resource.WithPreprocessingDisabled(cfg.Preprocessor.Disabled),
	)

	notifier := &busNotifier{
		client:  client,
		subject: s.subject(SuffixEventResourcesChanged),
		metrics: s.metrics,
		logger:  s.logger,
	}

	s.store = resource.NewStore(
		resource.WithPreprocessor(pre),
		resource.WithNotifier(notifier),
		resource.WithStoreLogger(s.logger),
	)

	s.BaseService = NewBaseService(cfg.Service.Name,
		WithNATS(client),
		WithLogger(s.logger),
	)

	return s, nil
}

// Store exposes the underlying resource table, mainly for bootstrap
// loading and tests.
func (s *ResourceService) Store() *resource.Store {
	return s.store
}

// subject joins the configured prefix with a suffix
func (s *ResourceService) subject(suffix string) string {
	return s.prefix + "." + suffix
}

// defaultFileOptions carries the configured default preprocessor
// arguments; explicit preprocessor requests bypass this.
func (s *ResourceService) defaultFileOptions(noPreprocess bool) resource.FileOptions {
	return resource.FileOptions{
		NoPreprocess: noPreprocess,
		Args:         s.cfg.Preprocessor.Args,
	}
}

// Start subscribes all handlers, performs the bootstrap load if one is
// configured, then starts the lifecycle machinery.
func (s *ResourceService) Start(ctx context.Context) error {
	if err := s.setupHandlers(ctx); err != nil {
		return err
	}

	if err := s.bootstrap(ctx); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordResourceCount(s.store.Len())
	}

	return s.BaseService.Start(ctx)
}

// setupHandlers subscribes to all command and query subjects
func (s *ResourceService) setupHandlers(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	handlers := map[string]nats.MsgHandler{
		s.subject(SuffixCmdLoad):        s.handleLoad,
		s.subject(SuffixCmdLoadCpp):     s.handleLoadCpp,
		s.subject(SuffixCmdMerge):       s.handleMerge,
		s.subject(SuffixCmdMergeCpp):    s.handleMergeCpp,
		s.subject(SuffixCmdSet):         s.handleSet,
		s.subject(SuffixCmdAdd):         s.handleAdd,
		s.subject(SuffixCmdRemoveOne):   s.handleRemoveOne,
		s.subject(SuffixCmdRemoveAll):   s.handleRemoveAll,
		s.subject(SuffixQueryMatch):     s.handleMatch,
		s.subject(SuffixQueryGet):       s.handleGet,
		s.subject(SuffixQueryResources): s.handleResources,
	}

	for subject, handler := range handlers {
		if err := s.nats.Subscribe(subject, handler); err != nil {
			return errors.WrapFatal(err, "ResourceService", "setupHandlers",
				fmt.Sprintf("failed to subscribe to %s", subject))
		}
		s.logger.Debug("Subscribed to subject", "subject", subject)
	}

	s.logger.Info("Bus handlers initialized", "subjects", len(handlers))
	return nil
}

// bootstrap loads the configured startup file, if any
func (s *ResourceService) bootstrap(ctx context.Context) error {
	file := s.cfg.Bootstrap.File
	if file == "" {
		return nil
	}

	var err error
	if s.cfg.Bootstrap.Merge {
		err = s.store.Merge(ctx, file, s.defaultFileOptions(false))
	} else {
		err = s.store.Load(ctx, file, s.defaultFileOptions(false))
	}
	if err != nil {
		return errors.Wrap(err, "ResourceService", "bootstrap", "load startup file")
	}

	s.logger.Info("Bootstrap file loaded", "path", file, "resources", s.store.Len())
	return nil
}

// File operation handlers

func (s *ResourceService) handleLoad(msg *nats.Msg) {
	done := s.observe("load")
	defer done()

	var req LoadRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondWithError(msg, "load", errors.WrapInvalid(err, "ResourceService", "handleLoad", "invalid request"))
		return
	}
	if req.Path == "" {
		s.respondWithError(msg, "load", errors.WrapInvalid(errors.ErrFileRead, "ResourceService", "handleLoad", "empty path"))
		return
	}

	if err := s.store.Load(context.Background(), req.Path, s.defaultFileOptions(req.NoPreprocess)); err != nil {
		s.respondWithError(msg, "load", err)
		return
	}

	s.recordTableSize()
	s.respondWithData(msg, "load", nil)
}

func (s *ResourceService) handleLoadCpp(msg *nats.Msg) {
	done := s.observe("load_cpp")
	defer done()

	req, err := decodeLoadCpp(msg.Data, "handleLoadCpp")
	if err != nil {
		s.respondWithError(msg, "load_cpp", err)
		return
	}

	opts := resource.FileOptions{Command: req.Command, Args: req.Args}
	if err := s.store.Load(context.Background(), req.Path, opts); err != nil {
		s.respondWithError(msg, "load_cpp", err)
		return
	}

	s.recordTableSize()
	s.respondWithData(msg, "load_cpp", nil)
}

func (s *ResourceService) handleMerge(msg *nats.Msg) {
	done := s.observe("merge")
	defer done()

	var req LoadRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondWithError(msg, "merge", errors.WrapInvalid(err, "ResourceService", "handleMerge", "invalid request"))
		return
	}
	if req.Path == "" {
		s.respondWithError(msg, "merge", errors.WrapInvalid(errors.ErrFileRead, "ResourceService", "handleMerge", "empty path"))
		return
	}

	if err := s.store.Merge(context.Background(), req.Path, s.defaultFileOptions(req.NoPreprocess)); err != nil {
		s.respondWithError(msg, "merge", err)
		return
	}

	s.recordTableSize()
	s.respondWithData(msg, "merge", nil)
}

func (s *ResourceService) handleMergeCpp(msg *nats.Msg) {
	done := s.observe("merge_cpp")
	defer done()

	req, err := decodeLoadCpp(msg.Data, "handleMergeCpp")
	if err != nil {
		s.respondWithError(msg, "merge_cpp", err)
		return
	}

	opts := resource.FileOptions{Command: req.Command, Args: req.Args}
	if err := s.store.Merge(context.Background(), req.Path, opts); err != nil {
		s.respondWithError(msg, "merge_cpp", err)
		return
	}

	s.recordTableSize()
	s.respondWithData(msg, "merge_cpp", nil)
}

func decodeLoadCpp(data []byte, operation string) (LoadCppRequest, error) {
	var req LoadCppRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return req, errors.WrapInvalid(err, "ResourceService", operation, "invalid request")
	}
	if req.Path == "" {
		return req, errors.WrapInvalid(errors.ErrFileRead, "ResourceService", operation, "empty path")
	}
	return req, nil
}

// Single-resource mutation handlers

func (s *ResourceService) handleSet(msg *nats.Msg) {
	done := s.observe("set")
	defer done()

	var req SetRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondWithError(msg, "set", errors.WrapInvalid(err, "ResourceService", "handleSet", "invalid request"))
		return
	}

	s.store.Set(req.Key, req.Value)

	s.recordTableSize()
	s.respondWithData(msg, "set", nil)
}

func (s *ResourceService) handleAdd(msg *nats.Msg) {
	done := s.observe("add")
	defer done()

	var req SetRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondWithError(msg, "add", errors.WrapInvalid(err, "ResourceService", "handleAdd", "invalid request"))
		return
	}

	s.store.Add(req.Key, req.Value)

	s.recordTableSize()
	s.respondWithData(msg, "add", nil)
}

func (s *ResourceService) handleRemoveOne(msg *nats.Msg) {
	done := s.observe("remove_one")
	defer done()

	var req RemoveRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondWithError(msg, "remove_one", errors.WrapInvalid(err, "ResourceService", "handleRemoveOne", "invalid request"))
		return
	}

	// An absent key is an empty result, not an error; nothing is
	// removed and no event fires.
	removed, ok := s.store.RemoveOne(req.Key)
	if !ok {
		s.respondWithData(msg, "remove_one", nil)
		return
	}

	s.recordTableSize()
	s.respondWithData(msg, "remove_one", removed)
}

func (s *ResourceService) handleRemoveAll(msg *nats.Msg) {
	done := s.observe("remove_all")
	defer done()

	s.store.RemoveAll()

	s.recordTableSize()
	s.respondWithData(msg, "remove_all", nil)
}

// Query handlers

func (s *ResourceService) handleMatch(msg *nats.Msg) {
	done := s.observe("match")
	defer done()

	var req MatchRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondWithError(msg, "match", errors.WrapInvalid(err, "ResourceService", "handleMatch", "invalid request"))
		return
	}

	s.respondWithData(msg, "match", s.store.Query(req.Match))
}

func (s *ResourceService) handleGet(msg *nats.Msg) {
	done := s.observe("get")
	defer done()

	var req GetRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.respondWithError(msg, "get", errors.WrapInvalid(err, "ResourceService", "handleGet", "invalid request"))
		return
	}

	s.respondWithData(msg, "get", s.store.Get(req.Key))
}

func (s *ResourceService) handleResources(msg *nats.Msg) {
	done := s.observe("resources")
	defer done()

	s.respondWithData(msg, "resources", s.store.Snapshot())
}

// Response helpers

func (s *ResourceService) respondWithData(msg *nats.Msg, operation string, data any) {
	if s.metrics != nil {
		s.metrics.RecordOperation(operation, "ok")
	}

	resp := OpResponse{Data: data}
	respData, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("Failed to marshal response", "operation", operation, "error", err)
		s.respondWithError(msg, operation, errors.WrapFatal(err, "ResourceService", "respondWithData", "marshal failed"))
		return
	}
	if err := msg.Respond(respData); err != nil {
		s.logger.Error("Failed to send response", "operation", operation, "error", err)
	}
}

func (s *ResourceService) respondWithError(msg *nats.Msg, operation string, err error) {
	if s.metrics != nil {
		s.metrics.RecordOperation(operation, "error")
		s.metrics.RecordError(operation, errors.Classify(err).String())
	}
	s.logger.Debug("Operation failed", "operation", operation, "error", err)

	resp := OpResponse{Error: err.Error()}
	respData, _ := json.Marshal(resp)
	if respErr := msg.Respond(respData); respErr != nil {
		s.logger.Error("Failed to send error response", "error", respErr, "original_error", err)
	}
}

// observe records activity and returns a closure timing the operation
func (s *ResourceService) observe(operation string) func() {
	s.recordActivity()
	start := time.Now()
	return func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(operation, time.Since(start))
		}
	}
}

// recordTableSize updates the table size gauge after a mutation
func (s *ResourceService) recordTableSize() {
	if s.metrics != nil {
		s.metrics.RecordResourceCount(s.store.Len())
	}
}

// busNotifier publishes the change event when the table mutates. It is
// called with the store lock released.
type busNotifier struct {
	client  *natsclient.Client
	subject string
	metrics *metric.Metrics
	logger  *slog.Logger
}

// ResourcesChanged publishes an empty message on the event subject.
// Delivery is asynchronous: the publish runs on its own goroutine so a
// bus outage never delays the mutation reply. Failures are retried
// briefly, then logged and counted, never propagated; the mutation
// itself already succeeded.
func (n *busNotifier) ResourcesChanged() {
	go func() {
		err := retry.Do(context.Background(), retry.Quick(), func() error {
			return n.client.Publish(n.subject, nil)
		})
		if err != nil {
			if n.metrics != nil {
				n.metrics.RecordEventPublishFailed()
			}
			n.logger.Error("Failed to publish change event", "subject", n.subject, "error", err)
			return
		}
		if n.metrics != nil {
			n.metrics.RecordEventPublished()
		}
	}()
}

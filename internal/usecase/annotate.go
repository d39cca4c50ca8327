package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"source-annotator/internal/chat"
	"source-annotator/internal/domain"
)

const (
	defaultMaxSourceBytes = 256 << 10
	statusComplete        = "complete"
	statusFailed          = "failed"
	inlineSource          = "inline"
)

// LLMClient is the completion provider. Every adapter under
// internal/integrations satisfies it.
type LLMClient interface {
	Complete(ctx context.Context, model string, messages []domain.ChatMessage) (domain.ChatResponse, error)
}

// RunRecorder persists one ledger entry per run. Optional.
type RunRecorder interface {
	RecordRun(ctx context.Context, run domain.AnnotationRun) error
}

type AnnotateService struct {
	llm            LLMClient
	model          string
	provider       string
	language       string
	maxSourceBytes int
	rewriter       fileRewriter
	recorder       RunRecorder
	logger         *slog.Logger
}

type Option func(*AnnotateService)

func WithLogger(l *slog.Logger) Option {
	return func(s *AnnotateService) {
		if l != nil {
			s.logger = l
		}
	}
}

func WithRecorder(r RunRecorder) Option {
	return func(s *AnnotateService) {
		s.recorder = r
	}
}

// WithAtomicWrite replaces the file through a temp file and rename instead
// of truncating it in place.
func WithAtomicWrite(atomic bool) Option {
	return func(s *AnnotateService) {
		s.rewriter.atomic = atomic
	}
}

// WithLanguage forces the source language instead of detecting it from the
// file extension.
func WithLanguage(name string) Option {
	return func(s *AnnotateService) {
		s.language = strings.TrimSpace(name)
	}
}

// WithProvider names the provider in ledger entries.
func WithProvider(name string) Option {
	return func(s *AnnotateService) {
		s.provider = strings.TrimSpace(name)
	}
}

func WithMaxSourceBytes(n int) Option {
	return func(s *AnnotateService) {
		if n > 0 {
			s.maxSourceBytes = n
		}
	}
}

type AnnotateInput struct {
	Path string
}

type AnnotateOutput struct {
	RunID       string
	Path        string
	Language    string
	TotalTokens int
	// Fenced reports whether the reply was wrapped in a code fence that had
	// to be stripped.
	Fenced bool
}

type SourceInput struct {
	Source   string
	FileName string
	Language string
}

type SourceOutput struct {
	RunID       string
	Annotated   string
	Language    string
	TotalTokens int
	Fenced      bool
}

func NewAnnotateService(llm LLMClient, model string, opts ...Option) (*AnnotateService, error) {
	if llm == nil {
		return nil, errors.New("usecase: llm client must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	s := &AnnotateService{
		llm:            llm,
		model:          model,
		maxSourceBytes: defaultMaxSourceBytes,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Annotate runs Read → Prompt → Send → Extract → Write for one file. The
// file is only touched by the final write, so any earlier failure leaves it
// as it was.
func (s *AnnotateService) Annotate(ctx context.Context, in AnnotateInput) (AnnotateOutput, error) {
	path := strings.TrimSpace(in.Path)
	if path == "" {
		return AnnotateOutput{}, newError(ErrorInvalidInput, "empty_path", nil)
	}

	out := AnnotateOutput{
		RunID:    newUUID(),
		Path:     path,
		Language: detectLanguage(path, s.language).Name,
	}
	logger := s.logger.With("run_id", out.RunID, "file", path)

	err := s.annotateFile(ctx, logger, &out)
	s.record(ctx, logger, out.RunID, path, out.Language, out.TotalTokens, out.Fenced, err)
	if err != nil {
		return AnnotateOutput{}, err
	}
	return out, nil
}

func (s *AnnotateService) annotateFile(ctx context.Context, logger *slog.Logger, out *AnnotateOutput) error {
	lang := detectLanguage(out.Path, s.language)

	request, err := buildCommentRequest(out.Path, lang)
	if err != nil {
		return err
	}

	resp, err := s.send(ctx, lang, request)
	if err != nil {
		return newError(ErrorRequest, "chat_request_error", err)
	}
	out.TotalTokens = resp.TotalTokens
	logger.Info("total tokens", "tokens", resp.TotalTokens)

	code, fenced := extractCode(resp.Content)
	out.Fenced = fenced
	if err := s.rewriter.rewrite(out.Path, code); err != nil {
		return newError(ErrorWrite, "file_write_error", err)
	}
	logger.Debug("file rewritten", "bytes", len(code), "fenced", fenced)
	return nil
}

// AnnotateSource annotates in-memory source text and returns the result
// without touching the filesystem.
func (s *AnnotateService) AnnotateSource(ctx context.Context, in SourceInput) (SourceOutput, error) {
	if strings.TrimSpace(in.Source) == "" {
		return SourceOutput{}, newError(ErrorInvalidInput, "empty_source", nil)
	}
	if len(in.Source) > s.maxSourceBytes {
		return SourceOutput{}, newError(ErrorInvalidInput, "source_too_large", nil)
	}
	if !utf8.ValidString(in.Source) {
		return SourceOutput{}, newError(ErrorInvalidInput, "source_not_utf8", nil)
	}

	override := strings.TrimSpace(in.Language)
	if override == "" {
		override = s.language
	}
	lang := detectLanguage(in.FileName, override)
	name := strings.TrimSpace(in.FileName)
	if name == "" {
		name = inlineSource
	}

	out := SourceOutput{RunID: newUUID(), Language: lang.Name}
	logger := s.logger.With("run_id", out.RunID, "file", name)

	resp, err := s.send(ctx, lang, commentRequestFor(in.Source, lang))
	if err != nil {
		err = newError(ErrorRequest, "chat_request_error", err)
		s.record(ctx, logger, out.RunID, name, lang.Name, 0, false, err)
		return SourceOutput{}, err
	}
	logger.Info("total tokens", "tokens", resp.TotalTokens)

	out.TotalTokens = resp.TotalTokens
	out.Annotated, out.Fenced = extractCode(resp.Content)
	s.record(ctx, logger, out.RunID, name, lang.Name, out.TotalTokens, out.Fenced, nil)
	return out, nil
}

func (s *AnnotateService) send(ctx context.Context, lang Language, request domain.ChatMessage) (domain.ChatResponse, error) {
	conv, err := chat.NewConversation(s.llm, s.model)
	if err != nil {
		return domain.ChatResponse{}, err
	}
	conv.Append(buildSystemPrompt(lang))
	return conv.Send(ctx, request)
}

// record writes the ledger entry. Ledger failures are logged and never fail
// the run: by the time it is written the file may already be rewritten.
func (s *AnnotateService) record(ctx context.Context, logger *slog.Logger, runID, path, language string, tokens int, fenced bool, runErr error) {
	if s.recorder == nil {
		return
	}
	run := domain.AnnotationRun{
		RunID:       runID,
		FilePath:    path,
		Provider:    s.provider,
		Model:       s.model,
		Language:    language,
		TotalTokens: tokens,
		Fenced:      fenced,
		Status:      statusComplete,
	}
	if runErr != nil {
		run.Status = statusFailed
		run.Reason = "unknown"
		var ue *Error
		if errors.As(runErr, &ue) {
			run.Reason = ue.Reason
		}
	}
	if err := s.recorder.RecordRun(ctx, run); err != nil {
		logger.Warn("failed to record annotation run", "err", err)
	}
}

var newUUID = func() string {
	return uuid.NewString()
}

package handlers

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	apperrors "github.com/nijaru/yt-summary/errors"
	"github.com/nijaru/yt-summary/middleware"
	"github.com/nijaru/yt-summary/models"
	"github.com/nijaru/yt-summary/summary"
	"github.com/nijaru/yt-summary/transcript"
	"github.com/nijaru/yt-summary/utils"
	"github.com/nijaru/yt-summary/validation"
)

const (
	UnavailableTranscript = "N/A"
	UnavailableSummary    = "Transcript is not available for this video."

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	archiveTimeout      = 10 * time.Second
)

// ArchiveFunc stores a produced summary somewhere outside the request path.
type ArchiveFunc func(ctx context.Context, r *models.SummaryRecord) error

type HistoryStore interface {
	Recent(ctx context.Context, limit int) ([]*models.SummaryRecord, error)
}

type Options struct {
	Fetcher    transcript.Fetcher
	Summarizer summary.Summarizer
	Renderer   *Renderer
	Archivers  []ArchiveFunc
	// History may be nil, in which case /history is not served.
	History HistoryStore
}

type Handler struct {
	fetcher    transcript.Fetcher
	summarizer summary.Summarizer
	renderer   *Renderer
	archivers  []ArchiveFunc
	history    HistoryStore
	startTime  time.Time

	archiving sync.WaitGroup
}

func New(opts Options) *Handler {
	renderer := opts.Renderer
	if renderer == nil {
		renderer = NewRenderer()
	}
	return &Handler{
		fetcher:    opts.Fetcher,
		summarizer: opts.Summarizer,
		renderer:   renderer,
		archivers:  opts.Archivers,
		history:    opts.History,
		startTime:  time.Now(),
	}
}

// Register mounts every route on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /process", h.Process)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /history", h.History)
}

func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "index", h.pageData("YouTube Transcript Summarizer"))
}

func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.Process"
	logger := middleware.GetLogger(r.Context())
	start := time.Now()

	videoURL := r.FormValue("video_url")
	videoID, err := validation.ValidateVideoURL(videoURL)
	if err != nil {
		logger.WithField("video_url", videoURL).Warn("Invalid video URL")
		utils.RespondWithError(w, r, apperrors.InvalidInput(op, err, err.Error()))
		return
	}
	logger = logger.WithField("video_id", videoID)

	segments, err := h.fetcher.Fetch(r.Context(), videoID)
	if errors.Is(err, transcript.ErrUnavailable) {
		logger.WithError(err).Info("Transcript unavailable")
		h.respondResult(w, r, &models.Result{
			VideoID:    videoID,
			Transcript: UnavailableTranscript,
			Summary:    UnavailableSummary,
		})
		return
	}
	if err != nil {
		logger.WithError(err).Error("Failed to fetch transcript")
		utils.RespondWithError(w, r, apperrors.Internal(op, errors.Wrap(err, "fetching transcript"), apperrors.GenericMessage))
		return
	}

	text := transcript.Join(segments)

	summaryText, err := h.summarizer.Summarize(r.Context(), text)
	if err != nil {
		logger.WithError(err).Error("Failed to summarize transcript")
		utils.RespondWithError(w, r, apperrors.Internal(op, errors.Wrap(err, "summarizing transcript"), apperrors.GenericMessage))
		return
	}

	record := models.NewSummaryRecord(videoID, videoURL, text, summaryText,
		h.summarizer.Checkpoint(), h.summarizer.Provider())

	logger.WithFields(logrus.Fields{
		"segments":       len(segments),
		"transcript_len": len(text),
		"summary_len":    len(summaryText),
		"duration":       time.Since(start),
	}).Info("Summary generated")

	h.respondResult(w, r, models.NewResult(record))

	if len(h.archivers) > 0 {
		h.archiving.Add(1)
		go func() {
			defer h.archiving.Done()
			h.archive(r.Context(), logger, record)
		}()
	}
}

// Wait blocks until every in-flight archive write has returned.
func (h *Handler) Wait() {
	h.archiving.Wait()
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJSON(w, http.StatusOK, map[string]string{
		"status":     "ok",
		"checkpoint": h.summarizer.Checkpoint(),
		"provider":   h.summarizer.Provider(),
		"uptime":     time.Since(h.startTime).Round(time.Second).String(),
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	const op = "Handler.History"
	logger := middleware.GetLogger(r.Context())

	if h.history == nil {
		utils.RespondWithError(w, r, apperrors.NotFound(op, nil, "History is not enabled"))
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			utils.RespondWithError(w, r, apperrors.InvalidInput(op, err, "limit must be a positive integer"))
			return
		}
		limit = min(n, maxHistoryLimit)
	}

	records, err := h.history.Recent(r.Context(), limit)
	if err != nil {
		logger.WithError(err).Error("Failed to load history")
		utils.RespondWithError(w, r, apperrors.Internal(op, err, apperrors.GenericMessage))
		return
	}

	if utils.WantsJSON(r) {
		utils.RespondWithJSON(w, http.StatusOK, map[string]interface{}{
			"summaries": records,
			"count":     len(records),
		})
		return
	}

	h.render(w, r, "history", HistoryPageData{
		PageData: h.pageData("Recent summaries"),
		Records:  records,
	})
}

func (h *Handler) respondResult(w http.ResponseWriter, r *http.Request, result *models.Result) {
	if utils.WantsJSON(r) {
		utils.RespondWithJSON(w, http.StatusOK, result)
		return
	}
	h.render(w, r, "result", ResultPageData{
		PageData: h.pageData("Summary"),
		Result:   result,
		Markdown: result.Checkpoint != "" && h.summarizer.Provider() != summary.ProviderHuggingFace,
	})
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if err := h.renderer.renderPage(w, http.StatusOK, name, data); err != nil {
		middleware.GetLogger(r.Context()).WithError(err).WithField("template", name).Error("Template execution error")
		utils.RespondWithError(w, r, apperrors.Internal("Handler.render", err, apperrors.GenericMessage))
	}
}

// archive outlives the request context. Failures are only logged.
func (h *Handler) archive(ctx context.Context, logger *logrus.Entry, record *models.SummaryRecord) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()

	for _, save := range h.archivers {
		if err := save(ctx, record); err != nil {
			logger.WithError(err).WithField("record_id", record.ID).Warn("Failed to archive summary")
		}
	}
}

func (h *Handler) pageData(title string) PageData {
	return PageData{Title: title, ShowHistory: h.history != nil}
}

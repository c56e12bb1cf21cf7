package upload

import (
	"bytes"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/picbed/service/internal/response"
	"github.com/picbed/service/internal/storage"
)

const (
	msgMethodNotAllowed = "only POST requests are accepted"
	msgUploaded         = "image uploaded successfully"
	msgUploadFailed     = "upload failed: "
	msgInternal         = "internal error"
)

// Upload results reported to the Recorder.
const (
	ResultOK         = "ok"
	ResultBadRequest = "bad_request"
	ResultError      = "error"
)

// Recorder receives one call per finished POST request.
type Recorder interface {
	ObserveUpload(result string, size int)
}

// Options configures a Handler.
type Options struct {
	// BaseURL is joined with "/" and the object name to build the returned URL.
	BaseURL string
	// MaxBodyBytes caps the request body; zero or negative means no limit.
	MaxBodyBytes int64
	// StrictBase64 reports structurally invalid base64 as a 400 instead of a 500.
	StrictBase64 bool
	// SanitizeErrors replaces internal error text in 500 bodies with a generic phrase.
	SanitizeErrors bool
	// VerifyContent rejects payloads whose sniffed type is not image/*.
	VerifyContent bool

	Logger  *slog.Logger
	Metrics Recorder

	Clock   func() time.Time // defaults to time.Now
	Entropy io.Reader        // defaults to crypto/rand.Reader
}

// Handler serves the upload endpoint. It keeps no per-request state and is
// safe for concurrent use.
type Handler struct {
	store storage.Store
	opts  Options
}

// NewHandler creates a Handler writing to store.
func NewHandler(store storage.Store, opts Options) *Handler {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Entropy == nil {
		opts.Entropy = rand.Reader
	}
	return &Handler{store: store, opts: opts}
}

type result struct {
	name string
	url  string
	size int
}

// ServeHTTP godoc
//
//	@Summary		Upload a base64 image
//	@Description	Decodes a base64 image and stores it in the bucket. The payload may be flat ({imageData, imageType}) or nested under "img". imageType defaults to jpeg and becomes the object extension and the image/<imageType> content type. Any path accepts the upload; the method is the only dispatch key.
//	@Tags			upload
//	@Accept			json
//	@Produce		json
//	@Param			request	body		Request	true	"Image payload"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope
//	@Failure		405		{string}	string	"only POST requests are accepted"
//	@Failure		500		{object}	response.Envelope
//	@Router			/ [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		response.MethodNotAllowed(w, http.MethodPost, msgMethodNotAllowed)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			h.fail(w, r, fmt.Errorf("panic: %v", rec))
		}
	}()

	res, err := h.upload(w, r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.record(ResultOK, res.size)
	h.opts.Logger.InfoContext(r.Context(), "image uploaded",
		slog.String("object", res.name),
		slog.Int("bytes", res.size),
	)
	response.OK(w, res.url, msgUploaded)
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) (result, error) {
	if !strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return result{}, invalid(ErrContentType)
	}

	body, err := h.readBody(w, r)
	if err != nil {
		return result{}, err
	}

	req, err := ParseRequest(body)
	if err != nil {
		return result{}, err
	}

	encoded := CleanBase64(req.ImageData)
	if !ValidBase64Charset(encoded) {
		return result{}, invalid(ErrInvalidBase64)
	}

	data, err := DecodeBase64(encoded)
	if err != nil {
		if h.opts.StrictBase64 {
			return result{}, invalid(fmt.Errorf("%w: %v", ErrInvalidBase64, err))
		}
		return result{}, fmt.Errorf("decode base64: %w", err)
	}

	detected := mimetype.Detect(data)
	h.opts.Logger.DebugContext(r.Context(), "decoded upload payload",
		slog.String("image_type", req.ImageType),
		slog.String("detected", detected.String()),
		slog.Int("bytes", len(data)),
	)
	if h.opts.VerifyContent && !strings.HasPrefix(detected.String(), "image/") {
		return result{}, invalid(ErrNotImage)
	}

	name, err := ObjectName(h.opts.Clock(), h.opts.Entropy, req.ImageType)
	if err != nil {
		return result{}, err
	}

	contentType := "image/" + req.ImageType
	if err := h.store.Put(r.Context(), name, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return result{}, err
	}

	return result{
		name: name,
		url:  h.opts.BaseURL + "/" + name,
		size: len(data),
	}, nil
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body := r.Body
	if h.opts.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, invalid(ErrBodyTooLarge)
		}
		return nil, invalid(ErrInvalidJSON)
	}
	return b, nil
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if IsRequestError(err) {
		h.record(ResultBadRequest, 0)
		h.opts.Logger.InfoContext(r.Context(), "upload rejected", slog.String("reason", err.Error()))
		response.BadRequest(w, err.Error())
		return
	}

	h.record(ResultError, 0)
	h.opts.Logger.ErrorContext(r.Context(), "upload failed", slog.String("error", err.Error()))
	msg := err.Error()
	if h.opts.SanitizeErrors {
		msg = msgInternal
	}
	response.InternalError(w, msgUploadFailed+msg)
}

func (h *Handler) record(outcome string, size int) {
	if h.opts.Metrics != nil {
		h.opts.Metrics.ObserveUpload(outcome, size)
	}
}

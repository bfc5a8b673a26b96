package handlers

import (
	"bytes"
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/Brownie44l1/rice-leaf-api/internal/diagnosis"
	"github.com/Brownie44l1/rice-leaf-api/internal/imaging"
	"github.com/Brownie44l1/rice-leaf-api/internal/labels"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	langCookie    = "lang"
	imageField    = "image"
	defaultUpload = 10 << 20
)

var (
	errNoImage          = errors.New("no image file provided, use 'image' as the form field name")
	errBadForm          = errors.New("failed to parse form")
	errTooLarge         = errors.New("upload too large")
	errUnsupportedExt   = errors.New("only .jpg, .jpeg and .png uploads are supported")
	allowedUploadSuffix = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}
)

// Diagnoser is the part of the diagnosis service the handlers use.
type Diagnoser interface {
	Diagnose(ctx context.Context, r io.Reader, lang labels.Language) (*diagnosis.Diagnosis, error)
	DiagnoseTensor(ctx context.Context, t *imaging.Tensor, lang labels.Language) (*diagnosis.Diagnosis, error)
	Info(lang labels.Language) ([]labels.Bundle, error)
}

// Options configures a Handler.
type Options struct {
	AssetsDir      string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

type Handler struct {
	diagnoser Diagnoser
	assetsDir string
	maxUpload int64
	logger    *slog.Logger
	pages     *template.Template
}

func NewHandler(d Diagnoser, opts Options) (*Handler, error) {
	pages, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse templates")
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultUpload
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Handler{
		diagnoser: d,
		assetsDir: opts.AssetsDir,
		maxUpload: opts.MaxUploadBytes,
		logger:    opts.Logger,
		pages:     pages,
	}, nil
}

// Routes registers every endpoint on a new mux.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.Index)
	mux.HandleFunc("/predict", h.PredictPage)
	mux.HandleFunc("/diseases", h.Diseases)
	mux.HandleFunc("/health", h.Health)
	mux.HandleFunc("/api/predict", h.PredictFromImage)
	mux.HandleFunc("/api/predict/tensor", h.PredictFromTensor)
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.Dir(h.assetsDir))))

	return h.logRequests(enableCORS(mux))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Index renders the upload and camera page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lang := h.language(w, r)
	page, err := h.newPage(lang, "/")
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "index.html", page)
}

// PredictPage classifies an uploaded or captured image and renders the result
// on the upload page.
func (h *Handler) PredictPage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, uploadErr := h.readUpload(w, r)
	lang := h.language(w, r)
	page, err := h.newPage(lang, "/")
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	if uploadErr != nil {
		status := statusFor(uploadErr)
		if status == http.StatusInternalServerError {
			h.internalError(w, r, uploadErr)
			return
		}
		page.Error = userMessage(page.UI, uploadErr)
		h.render(w, r, status, "index.html", page)
		return
	}

	d, err := h.diagnoser.Diagnose(r.Context(), bytes.NewReader(data), lang)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.internalError(w, r, err)
			return
		}
		h.logger.InfoContext(r.Context(), "rejected upload", "error", err)
		page.Error = userMessage(page.UI, err)
		h.render(w, r, status, "index.html", page)
		return
	}

	page.Result = &resultView{
		Name:       d.Bundle.Name,
		Confidence: d.ConfidenceText(),
		ImageURI:   dataURI(d.Format, data),
	}
	h.render(w, r, http.StatusOK, "index.html", page)
}

// Diseases renders the information page for every class.
func (h *Handler) Diseases(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	lang := h.language(w, r)
	page, err := h.newPage(lang, "/diseases")
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	page.PageTitle = page.UI.InfoTitle

	bundles, err := h.diagnoser.Info(lang)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	for _, b := range bundles {
		page.Diseases = append(page.Diseases, diseaseView{
			Bundle:       b,
			ImageMissing: !h.assetExists(b.Asset),
		})
	}
	h.render(w, r, http.StatusOK, "diseases.html", page)
}

// PredictFromImage is the JSON API for a multipart upload.
func (h *Handler) PredictFromImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	data, err := h.readUpload(w, r)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	lang := h.language(w, r)

	d, err := h.diagnoser.Diagnose(r.Context(), bytes.NewReader(data), lang)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPredictionResponse(d))
}

// PredictFromTensor is the JSON API for clients that preprocess themselves and
// send the 3×224×224 CHW values directly.
func (h *Handler) PredictFromTensor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req TensorRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxUpload)).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	tensor, err := imaging.NewTensor(req.Image)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	lang := labels.English
	if req.Language != "" {
		if lang, err = labels.ParseLanguage(req.Language); err != nil {
			http.Error(w, "Unsupported language", http.StatusBadRequest)
			return
		}
	}

	d, err := h.diagnoser.DiagnoseTensor(r.Context(), tensor, lang)
	if err != nil {
		h.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPredictionResponse(d))
}

// readUpload returns the bytes of the "image" form file.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, errors.Wrapf(errTooLarge, "limit %d bytes", tooLarge.Limit)
		}
		return nil, errors.Wrap(errBadForm, err.Error())
	}

	file, header, err := r.FormFile(imageField)
	if err != nil {
		return nil, errNoImage
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !allowedUploadSuffix[ext] {
		return nil, errors.Wrapf(errUnsupportedExt, "got %q", header.Filename)
	}

	h.logger.DebugContext(r.Context(), "received file", "name", header.Filename, "size", header.Size)

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read upload")
	}
	return data, nil
}

// language picks the request language: an explicit lang value (query or form)
// wins and is remembered in a cookie, then the cookie, then English. Unknown
// values are ignored here so the resolver is never asked for them.
func (h *Handler) language(w http.ResponseWriter, r *http.Request) labels.Language {
	if v := r.FormValue("lang"); v != "" {
		if lang, err := labels.ParseLanguage(v); err == nil {
			http.SetCookie(w, &http.Cookie{
				Name:     langCookie,
				Value:    lang.Code(),
				Path:     "/",
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			return lang
		}
	}
	if c, err := r.Cookie(langCookie); err == nil {
		if lang, err := labels.ParseLanguage(c.Value); err == nil {
			return lang
		}
	}
	return labels.English
}

func (h *Handler) assetExists(name string) bool {
	info, err := os.Stat(filepath.Join(h.assetsDir, name))
	return err == nil && !info.IsDir()
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, page *pageData) {
	var buf bytes.Buffer
	if err := h.pages.ExecuteTemplate(&buf, name, page); err != nil {
		h.internalError(w, r, errors.Wrapf(err, "failed to render %s", name))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func (h *Handler) apiError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.internalError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "rejected request", "path", r.URL.Path, "error", err)
	http.Error(w, publicMessage(err), status)
}

// statusFor maps pipeline errors to HTTP statuses. Anything unlisted,
// including resolver errors, is a server fault.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errUnsupportedExt), errors.Is(err, imaging.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, imaging.ErrDecode), errors.Is(err, errNoImage), errors.Is(err, errBadForm):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(err error) string {
	switch {
	case errors.Is(err, errUnsupportedExt), errors.Is(err, imaging.ErrUnsupportedFormat):
		return "Invalid image format. Supported: JPEG, PNG"
	case errors.Is(err, imaging.ErrDecode):
		return "Image could not be decoded"
	case errors.Is(err, errNoImage):
		return errNoImage.Error()
	case errors.Is(err, errBadForm):
		return "Failed to parse form"
	case errors.Is(err, errTooLarge):
		return "Image too large"
	default:
		return http.StatusText(statusFor(err))
	}
}

func userMessage(ui labels.Strings, err error) string {
	switch {
	case errors.Is(err, errUnsupportedExt), errors.Is(err, imaging.ErrUnsupportedFormat):
		return ui.FormatError
	case errors.Is(err, imaging.ErrDecode), errors.Is(err, errNoImage), errors.Is(err, errBadForm), errors.Is(err, errTooLarge):
		return ui.DecodeError
	default:
		return ui.InternalError
	}
}

func dataURI(format string, data []byte) template.URL {
	mime := "image/jpeg"
	if format == "png" {
		mime = "image/png"
	}
	// Only bytes that decoded as JPEG or PNG reach here.
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

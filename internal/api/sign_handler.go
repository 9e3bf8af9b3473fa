package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/oss-presign/pkg/osssign"
)

// SignHandler exposes the presigned URL signer over HTTP. Requests carry
// signing parameters as a JSON body (POST) or query string (GET); fields
// absent from the request fall back to the environment-provided defaults.
type SignHandler struct {
	signer   *osssign.Signer
	defaults osssign.PresignRequest
}

// NewSignHandler creates a new sign handler. defaults supplies credentials
// and location fields merged into requests that omit them.
func NewSignHandler(signer *osssign.Signer, defaults osssign.PresignRequest) *SignHandler {
	return &SignHandler{
		signer:   signer,
		defaults: defaults,
	}
}

// Routes returns the router for the sign endpoint
func (h *SignHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.SignURL)
	r.Get("/", h.SignURL)
	return r
}

// SignURLRequest represents the parameters of a single signing call
type SignURLRequest struct {
	AccessKeyID       string            `json:"accessKeyId,omitempty"`
	AccessKeySecret   string            `json:"accessKeySecret,omitempty"`
	SecurityToken     string            `json:"securityToken,omitempty"`
	Region            string            `json:"region,omitempty"`
	Bucket            string            `json:"bucket,omitempty"`
	Object            string            `json:"object,omitempty"`
	Endpoint          string            `json:"endpoint,omitempty"`
	Method            string            `json:"method,omitempty"`
	Expires           int64             `json:"expires,omitempty"`
	Headers           map[string]string `json:"headers,omitempty"`
	Queries           map[string]string `json:"queries,omitempty"`
	AdditionalHeaders []string          `json:"additionalHeaders,omitempty"`
}

// SignURLResponse carries the signed URL
type SignURLResponse struct {
	URL string `json:"url"`
}

// ErrorResponse carries a signing or validation failure
type ErrorResponse struct {
	Error string `json:"error"`
}

// SignURL produces a presigned URL for the requested object. Missing
// credential and location fields are filled from the handler defaults before
// signing; requests that are still incomplete get a 400, signer failures a
// 500.
func (h *SignHandler) SignURL(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeRequest(r)
	if err != nil {
		slog.Error("Fail to decode sign request", "error", err)
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})
		return
	}

	signReq := h.mergeDefaults(req)
	signed, err := h.signer.Presign(signReq)
	if err != nil {
		if osssign.IsConfigurationError(err) {
			slog.Warn("Sign request rejected", "bucket", signReq.Bucket, "object", signReq.Object, "error", err)
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, ErrorResponse{Error: err.Error()})
			return
		}
		slog.Error("Failed to sign URL", "bucket", signReq.Bucket, "object", signReq.Object, "error", err)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, ErrorResponse{Error: err.Error()})
		return
	}

	slog.Info("Signed URL issued", "bucket", signReq.Bucket, "object", signReq.Object, "expires", signReq.Expires)
	render.JSON(w, r, SignURLResponse{URL: signed})
}

// decodeRequest reads parameters from the JSON body when one is supplied,
// falling back to the query string. Header and query maps are JSON-only;
// additionalHeaders accepts a comma-separated list in query form.
func (h *SignHandler) decodeRequest(r *http.Request) (SignURLRequest, error) {
	var req SignURLRequest

	if r.Method == http.MethodPost && r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
		return req, nil
	}

	q := r.URL.Query()
	req.AccessKeyID = q.Get("accessKeyId")
	req.AccessKeySecret = q.Get("accessKeySecret")
	req.SecurityToken = q.Get("securityToken")
	req.Region = q.Get("region")
	req.Bucket = q.Get("bucket")
	req.Object = q.Get("object")
	req.Endpoint = q.Get("endpoint")
	req.Method = q.Get("method")
	if v := q.Get("expires"); v != "" {
		expires, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, err
		}
		req.Expires = expires
	}
	if v := q.Get("additionalHeaders"); v != "" {
		req.AdditionalHeaders = strings.Split(v, ",")
	}
	return req, nil
}

// mergeDefaults fills fields the request left empty from the
// environment-provided defaults.
func (h *SignHandler) mergeDefaults(req SignURLRequest) osssign.PresignRequest {
	merged := osssign.PresignRequest{
		AccessKeyID:       req.AccessKeyID,
		AccessKeySecret:   req.AccessKeySecret,
		SecurityToken:     req.SecurityToken,
		Region:            req.Region,
		Bucket:            req.Bucket,
		Object:            req.Object,
		Endpoint:          req.Endpoint,
		Method:            req.Method,
		Expires:           req.Expires,
		Headers:           req.Headers,
		Queries:           req.Queries,
		AdditionalHeaders: req.AdditionalHeaders,
	}

	if merged.AccessKeyID == "" {
		merged.AccessKeyID = h.defaults.AccessKeyID
	}
	if merged.AccessKeySecret == "" {
		merged.AccessKeySecret = h.defaults.AccessKeySecret
	}
	if merged.SecurityToken == "" {
		merged.SecurityToken = h.defaults.SecurityToken
	}
	if merged.Region == "" {
		merged.Region = h.defaults.Region
	}
	if merged.Bucket == "" {
		merged.Bucket = h.defaults.Bucket
	}
	if merged.Endpoint == "" {
		merged.Endpoint = h.defaults.Endpoint
	}
	if merged.Expires == 0 {
		merged.Expires = h.defaults.Expires
	}
	return merged
}

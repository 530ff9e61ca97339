package httpresp

const (
	ErrUnauthorized       = "unauthorized"
	ErrMissingBearerToken = "bearer token is required"
	ErrInvalidToken       = "invalid token"
	ErrForbidden          = "forbidden"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type OKResponse struct {
	OK bool `json:"ok"`
}

type URLResponse struct {
	URL string `json:"url"`
}

// UploadResponse references a stored video: the object key plus a
// time-limited preview URL the client can render immediately.
type UploadResponse struct {
	Path       string `json:"path"`
	PreviewURL string `json:"previewUrl"`
}

// AnalyzeResponse is the pinned external contract of POST /api/analyze.
type AnalyzeResponse struct {
	Success  bool   `json:"success"`
	Feedback string `json:"feedback,omitempty"`
	Error    string `json:"error,omitempty"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

func NewOKResponse() OKResponse {
	return OKResponse{OK: true}
}

func NewURLResponse(url string) URLResponse {
	return URLResponse{URL: url}
}

func NewUploadResponse(path, previewURL string) UploadResponse {
	return UploadResponse{Path: path, PreviewURL: previewURL}
}

func NewAnalyzeSuccess(feedback string) AnalyzeResponse {
	return AnalyzeResponse{Success: true, Feedback: feedback}
}

func NewAnalyzeError(message string) AnalyzeResponse {
	return AnalyzeResponse{Success: false, Error: message}
}

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"sentirec/pkg/types"
)

type handlers struct {
	svc Service
}

// predict godoc
// @Summary      Predict sentiment
// @Description  Classifies the sentiment of the given text as positive or negative.
// @Tags         sentiment
// @Accept       json
// @Produce      json
// @Param        request  body      types.TextRequest  true  "Text to classify"
// @Success      200      {object}  types.PredictResponse
// @Failure      422      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse  "Model not loaded"
// @Router       /predict [post]
func (h *handlers) predict(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "predict", func(ctx context.Context, req types.TextRequest) (any, error) {
		p, err := h.svc.Predict(ctx, req.Text)
		if err != nil {
			return nil, err
		}
		return types.PredictResponse{Label: p.Label, Confidence: p.Confidence}, nil
	})
}

// recommend godoc
// @Summary      Recommend products
// @Description  Returns the titles of the products most similar to the given text, best match first.
// @Tags         recommendations
// @Accept       json
// @Produce      json
// @Param        request  body      types.TextRequest  true  "Query text"
// @Success      200      {object}  types.RecommendResponse
// @Failure      422      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse  "Vector store or embedder unavailable"
// @Router       /recommend [post]
func (h *handlers) recommend(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "recommend", func(ctx context.Context, req types.TextRequest) (any, error) {
		recs, err := h.svc.Recommend(ctx, req.Text, req.TopK)
		if err != nil {
			return nil, err
		}
		titles := make([]string, 0, len(recs))
		for _, rec := range recs {
			titles = append(titles, rec.ProductTitle)
		}
		return types.RecommendResponse{RecommendedProducts: titles}, nil
	})
}

// recommendDetailed godoc
// @Summary      Recommend products with scores
// @Description  Returns the products most similar to the given text with their ids and similarity scores.
// @Tags         recommendations
// @Accept       json
// @Produce      json
// @Param        request  body      types.TextRequest  true  "Query text"
// @Success      200      {object}  types.DetailedRecommendResponse
// @Failure      422      {object}  types.ErrorResponse
// @Failure      503      {object}  types.ErrorResponse  "Vector store or embedder unavailable"
// @Router       /recommend/detailed [post]
func (h *handlers) recommendDetailed(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "recommend_detailed", func(ctx context.Context, req types.TextRequest) (any, error) {
		recs, err := h.svc.Recommend(ctx, req.Text, req.TopK)
		if err != nil {
			return nil, err
		}
		if recs == nil {
			recs = []types.Recommendation{}
		}
		return types.DetailedRecommendResponse{Recommendations: recs}, nil
	})
}

// status godoc
// @Summary      Service status
// @Description  Reports per-component readiness, breaker state and counters.
// @Tags         ops
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Status())
}

// serve decodes and validates a TextRequest, runs fn under the request
// context and writes its result or the mapped error.
func (h *handlers) serve(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, types.TextRequest) (any, error)) {
	start := time.Now()
	lvl := requestLogLevel(r)

	req, status, err := decodeTextRequest(w, r)
	if err != nil {
		writeJSONError(w, status, err.Error())
		logRequestEnd(r, lvl, op, status, start, err)
		return
	}
	if lvl >= LevelDebug {
		zlog.Debug().Str("op", op).Int("text_len", len(req.Text)).Int("top_k", req.TopK).Msg(op + " start")
	}

	ctx, cancel := requestContext(r)
	defer cancel()
	resp, err := fn(ctx, req)
	if err != nil {
		// Client went away or the server is shutting down; nobody reads the answer.
		if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
			logRequestEnd(r, lvl, op, 499, start, err)
			return
		}
		status, msg := statusForError(err)
		writeJSONError(w, status, msg)
		logRequestEnd(r, lvl, op, status, start, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
	logRequestEnd(r, lvl, op, http.StatusOK, start, nil)
}

// decodeTextRequest enforces JSON content, the body size limit and field
// validation. Every rejection is a client input error (422). A missing
// Content-Type is decoded as JSON.
func decodeTextRequest(w http.ResponseWriter, r *http.Request) (types.TextRequest, int, error) {
	var req types.TextRequest
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		return req, http.StatusUnprocessableEntity, errors.New("Content-Type must be application/json")
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return req, http.StatusUnprocessableEntity, errors.New("request body too large")
		}
		return req, http.StatusUnprocessableEntity, errors.New("invalid JSON body")
	}
	if err := validateStruct(&req); err != nil {
		return req, http.StatusUnprocessableEntity, err
	}
	return req, 0, nil
}

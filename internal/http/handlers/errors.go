package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"profileai/internal/domain"
	"profileai/internal/editor"
	"profileai/internal/providers/openai"
)

const (
	msgInvalidRequest    = "요청이 올바르지 않습니다"
	msgInvalidCredential = "OpenAI API 키가 유효하지 않습니다"
	msgQuotaExceeded     = "OpenAI API 요청 한도를 초과했습니다"
	msgUpstreamFault     = "OpenAI 서버 오류가 발생했습니다"
	msgAnalysisFailed    = "AI 분석 실패"
	msgProfileFailed     = "프로필 AI 분석 실패"
	msgEditFailed        = "이미지 편집 실패"
	msgEditTimeout       = "이미지 편집 시간이 초과되었습니다"
	msgPromptTestFailed  = "프롬프트 테스트 실패"
	msgRunsUnavailable   = "실행 기록을 불러오지 못했습니다"
	msgBackgroundsFailed = "배경 생성 실패"
)

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Type    string `json:"type,omitempty"`
}

// fail maps err onto a status and body. generic is the message used for
// unclassified failures of the calling endpoint.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error, generic string) {
	status, body := classify(err, generic)
	log := zerolog.Ctx(r.Context())
	if log.GetLevel() == zerolog.Disabled {
		log = a.logger
	}
	event := log.Error()
	if status < 500 {
		event = log.Warn()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")
	a.json(w, status, body)
}

func classify(err error, generic string) (int, errorBody) {
	var inputErr *domain.InputError
	if errors.As(err, &inputErr) {
		return http.StatusBadRequest, errorBody{Error: msgInvalidRequest, Details: inputErr.Message}
	}
	if errors.Is(err, domain.ErrInvalidInput) {
		return http.StatusBadRequest, errorBody{Error: msgInvalidRequest, Details: err.Error()}
	}
	if ie, ok := openai.AsInferenceError(err); ok {
		msg := generic
		switch ie.Kind {
		case openai.KindInvalidCredential:
			msg = msgInvalidCredential
		case openai.KindQuotaExceeded:
			msg = msgQuotaExceeded
		case openai.KindUpstreamFault:
			msg = msgUpstreamFault
		}
		return http.StatusInternalServerError, errorBody{Error: msg, Details: ie.Error(), Type: string(ie.Kind)}
	}
	if errors.Is(err, domain.ErrEditTimeout) {
		return http.StatusGatewayTimeout, errorBody{Error: msgEditTimeout, Details: err.Error()}
	}
	var failure *editor.FailureError
	if errors.As(err, &failure) {
		details := string(failure.Payload)
		if details == "" {
			details = failure.Error()
		}
		return http.StatusInternalServerError, errorBody{Error: msgEditFailed, Details: details}
	}
	var submission *editor.SubmissionError
	if errors.As(err, &submission) && len(submission.Payload) > 0 {
		return http.StatusInternalServerError, errorBody{Error: msgEditFailed, Details: string(submission.Payload)}
	}
	if errors.Is(err, domain.ErrEditSubmission) || errors.Is(err, domain.ErrEditFailed) {
		return http.StatusInternalServerError, errorBody{Error: msgEditFailed, Details: err.Error()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, errorBody{Error: generic, Details: "request timed out"}
	}
	return http.StatusInternalServerError, errorBody{Error: generic, Details: err.Error()}
}

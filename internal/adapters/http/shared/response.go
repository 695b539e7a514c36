package shared

import (
	"encoding/json"
	"net/http"

	"zapcast/platform/logger"
)

// SuccessResponse estrutura padrão para respostas de sucesso
type SuccessResponse struct {
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
	Success bool        `json:"success"`
}

// ErrorResponse estrutura padrão para respostas de erro
type ErrorResponse struct {
	Details interface{} `json:"details,omitempty"`
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Success bool        `json:"success"`
}

// ValidationError representa um erro de validação específico
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// HealthResponse resposta para health check
type HealthResponse struct {
	Status   string `json:"status"`
	Service  string `json:"service"`
	Database string `json:"database,omitempty"`
}

// ResponseWriter utilitário para escrever respostas HTTP
type ResponseWriter struct {
	logger *logger.Logger
}

// NewResponseWriter cria nova instância do response writer
func NewResponseWriter(logger *logger.Logger) *ResponseWriter {
	return &ResponseWriter{
		logger: logger,
	}
}

// WriteSuccess escreve resposta de sucesso
func (rw *ResponseWriter) WriteSuccess(w http.ResponseWriter, data interface{}, message ...string) {
	rw.writeJSON(w, http.StatusOK, newSuccessResponse(data, message...))
}

// WriteCreated escreve resposta de criação (201)
func (rw *ResponseWriter) WriteCreated(w http.ResponseWriter, data interface{}, message ...string) {
	rw.writeJSON(w, http.StatusCreated, newSuccessResponse(data, message...))
}

// WriteError escreve resposta de erro
func (rw *ResponseWriter) WriteError(w http.ResponseWriter, statusCode int, message string, details ...interface{}) {
	response := &ErrorResponse{
		Success: false,
		Error:   message,
	}
	if len(details) > 0 {
		response.Details = details[0]
	}
	rw.writeJSON(w, statusCode, response)
}

// WriteBadRequest escreve resposta de bad request (400)
func (rw *ResponseWriter) WriteBadRequest(w http.ResponseWriter, message string, details ...interface{}) {
	rw.WriteError(w, http.StatusBadRequest, message, details...)
}

// WriteUnauthorized escreve resposta de não autorizado (401)
func (rw *ResponseWriter) WriteUnauthorized(w http.ResponseWriter, message string) {
	rw.WriteError(w, http.StatusUnauthorized, message)
}

// WriteForbidden escreve resposta de acesso negado (403)
func (rw *ResponseWriter) WriteForbidden(w http.ResponseWriter, message string) {
	rw.WriteError(w, http.StatusForbidden, message)
}

// WriteNotFound escreve resposta de não encontrado (404)
func (rw *ResponseWriter) WriteNotFound(w http.ResponseWriter, message string) {
	rw.WriteError(w, http.StatusNotFound, message)
}

// WriteTooManyRequests escreve resposta de limite excedido (429)
func (rw *ResponseWriter) WriteTooManyRequests(w http.ResponseWriter, message string) {
	rw.WriteError(w, http.StatusTooManyRequests, message)
}

// WriteValidationError escreve resposta de erro de validação
func (rw *ResponseWriter) WriteValidationError(w http.ResponseWriter, errors []ValidationError) {
	response := &ErrorResponse{
		Success: false,
		Error:   "Validation failed",
		Code:    "VALIDATION_ERROR",
		Details: errors,
	}
	rw.writeJSON(w, http.StatusBadRequest, response)
}

// WriteInternalError escreve resposta de erro interno (500)
func (rw *ResponseWriter) WriteInternalError(w http.ResponseWriter, message string) {
	rw.WriteError(w, http.StatusInternalServerError, message)
}

func (rw *ResponseWriter) writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		rw.logger.ErrorWithFields("Failed to encode JSON response", map[string]interface{}{
			"error":       err.Error(),
			"status_code": statusCode,
		})
	}
}

func newSuccessResponse(data interface{}, message ...string) *SuccessResponse {
	response := &SuccessResponse{
		Success: true,
		Data:    data,
	}
	if len(message) > 0 {
		response.Message = message[0]
	}
	return response
}

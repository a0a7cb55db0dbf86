package handlers

import (
	"context"
	"encoding/json"
	"time"

	"doc-recognizer/internal/dto"
	"doc-recognizer/internal/payload"
	"doc-recognizer/internal/service"
	"doc-recognizer/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type RecognitionHandler struct {
	recognitionService *service.RecognitionService
	requestTimeout     time.Duration
	logger             *zap.Logger
}

func NewRecognitionHandler(recognitionService *service.RecognitionService, requestTimeout time.Duration, logger *zap.Logger) *RecognitionHandler {
	return &RecognitionHandler{
		recognitionService: recognitionService,
		requestTimeout:     requestTimeout,
		logger:             logger,
	}
}

// Audio godoc
// @Summary Recognize a voice message
// @Description Speech-to-text, then bank name and a 10-digit phone number. The phone falls back to a pattern search over the transcript.
// @Tags recognition
// @Accept json
// @Produce json
// @Param request body dto.RecognitionRequest true "text or audio (base64 OGG/Opus)"
// @Security Bearer
// @Success 200 {object} dto.AudioResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 405 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /audio [post]
func (h *RecognitionHandler) Audio(c *fiber.Ctx) error {
	return h.Handle(c, service.DomainAudio)
}

// License godoc
// @Summary Recognize a driving license
// @Description OCR of one image or a front/back pair, then full name and 10-digit license number
// @Tags recognition
// @Accept json
// @Produce json
// @Param request body dto.RecognitionRequest true "text, front_image+back_image or image"
// @Security Bearer
// @Success 200 {object} dto.LicenseResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 415 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /license [post]
func (h *RecognitionHandler) License(c *fiber.Ctx) error {
	return h.Handle(c, service.DomainLicense)
}

// Passport godoc
// @Summary Recognize a passport
// @Description OCR, then name parts, birth data, 10-digit passport number and citizenship
// @Tags recognition
// @Accept json
// @Produce json
// @Param request body dto.RecognitionRequest true "text, front_image+back_image or image"
// @Security Bearer
// @Success 200 {object} dto.PassportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 415 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /passport [post]
func (h *RecognitionHandler) Passport(c *fiber.Ctx) error {
	return h.Handle(c, service.DomainPassport)
}

// Patent godoc
// @Summary Recognize a work patent
// @Description OCR, then full name, citizenship and document number. All three are required.
// @Tags recognition
// @Accept json
// @Produce json
// @Param request body dto.RecognitionRequest true "text, front_image+back_image or image"
// @Security Bearer
// @Success 200 {object} dto.PatentResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 415 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Failure 500 {object} dto.ErrorResponse
// @Router /patent [post]
func (h *RecognitionHandler) Patent(c *fiber.Ctx) error {
	return h.Handle(c, service.DomainPatent)
}

// Handle runs the pipeline for the named domain and writes the envelope.
func (h *RecognitionHandler) Handle(c *fiber.Ctx, domainName string) error {
	if c.Method() != fiber.MethodPost {
		return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
			"error": "Method Not Allowed",
		})
	}

	domain, ok := service.DomainByName(domainName)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Not Found",
		})
	}

	body, err := payload.UnwrapBody(c.Body())
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON body",
		})
	}
	var req dto.RecognitionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid JSON body",
		})
	}

	ctx, cancel := context.WithTimeout(c.UserContext(), h.requestTimeout)
	defer cancel()
	ctx = service.WithRequestID(ctx, middleware.GetRequestID(c))

	res, err := h.recognitionService.Recognize(ctx, domain, service.Input{
		Text:       req.Text,
		Audio:      req.AudioData(),
		Image:      req.ImageData(),
		FrontImage: req.FrontImage,
		BackImage:  req.BackImage,
	})
	if err != nil {
		status, envelope := errorEnvelope(err)
		fields := []zap.Field{
			zap.String("domain", domain.Name),
			zap.Int("status", status),
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.Error(err),
		}
		if status >= fiber.StatusInternalServerError {
			h.logger.Error("Recognition failed", fields...)
		} else {
			h.logger.Warn("Recognition rejected", fields...)
		}
		return c.Status(status).JSON(envelope)
	}

	return c.Status(fiber.StatusOK).JSON(toResponse(res))
}

// toResponse assembles the success envelope of a domain.
func toResponse(res *service.Result) interface{} {
	switch res.Domain.Name {
	case service.DomainAudio:
		info := dto.ProcessingInfo{
			GPTUsed:      res.ModelUsed,
			FallbackUsed: res.FallbackUsed(),
			PhoneSource:  string(res.SourceOf("phone_number")),
		}
		if res.ModelError != "" {
			msg := res.ModelError
			info.GPTError = &msg
		}
		return dto.AudioResponse{
			Success:        true,
			BankName:       res.Field("bank_name"),
			PhoneNumber:    res.Field("phone_number"),
			RawText:        res.RawText,
			ProcessingInfo: info,
		}
	case service.DomainLicense:
		return dto.LicenseResponse{
			Success:       true,
			FullName:      res.Field("full_name"),
			LicenseNumber: res.Field("license_number"),
		}
	case service.DomainPassport:
		return dto.PassportResponse{
			Success:        true,
			LastName:       res.Field("last_name"),
			FirstName:      res.Field("first_name"),
			MiddleName:     res.Field("middle_name"),
			BirthDate:      res.Field("birth_date"),
			BirthPlace:     res.Field("birth_place"),
			PassportNumber: res.Field("passport_number"),
			Citizenship:    res.Field("citizenship"),
		}
	case service.DomainPatent:
		return dto.PatentResponse{
			Success:        true,
			FullName:       res.Field("full_name"),
			Citizenship:    res.Field("citizenship"),
			DocumentNumber: res.Field("document_number"),
		}
	}

	// domains without a typed envelope fall back to a plain map
	out := fiber.Map{"success": true}
	for _, f := range res.Fields {
		out[f.Name] = f.Value
	}
	return out
}

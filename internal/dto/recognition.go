package dto

// RecognitionRequest is the body accepted by every recognition endpoint.
// Exactly one variant is used: text, then front_image+back_image, then
// image (audio for the audio endpoint). Base64 fields may be data: URIs.
type RecognitionRequest struct {
	Text        string `json:"text,omitempty"`
	Audio       string `json:"audio,omitempty"`
	AudioBase64 string `json:"audioBase64,omitempty"`
	Image       string `json:"image,omitempty"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	FrontImage  string `json:"front_image,omitempty"`
	BackImage   string `json:"back_image,omitempty"`
}

// AudioData returns the audio field, preferring "audio" over its alias.
func (r RecognitionRequest) AudioData() string {
	if r.Audio != "" {
		return r.Audio
	}
	return r.AudioBase64
}

// ImageData returns the single image field, preferring "image" over its alias.
func (r RecognitionRequest) ImageData() string {
	if r.Image != "" {
		return r.Image
	}
	return r.ImageBase64
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type ProcessingInfo struct {
	GPTUsed      bool    `json:"gpt_used"`
	GPTError     *string `json:"gpt_error"`
	FallbackUsed bool    `json:"fallback_used"`
	PhoneSource  string  `json:"phone_source"`
}

type AudioResponse struct {
	Success        bool           `json:"success"`
	BankName       *string        `json:"bank_name"`
	PhoneNumber    *string        `json:"phone_number"`
	RawText        string         `json:"raw_text"`
	ProcessingInfo ProcessingInfo `json:"processing_info"`
}

type LicenseResponse struct {
	Success       bool    `json:"success"`
	FullName      *string `json:"full_name"`
	LicenseNumber *string `json:"license_number"`
}

type PassportResponse struct {
	Success        bool    `json:"success"`
	LastName       *string `json:"last_name"`
	FirstName      *string `json:"first_name"`
	MiddleName     *string `json:"middle_name"`
	BirthDate      *string `json:"birth_date"`
	BirthPlace     *string `json:"birth_place"`
	PassportNumber *string `json:"passport_number"`
	Citizenship    *string `json:"citizenship"`
}

type PatentResponse struct {
	Success        bool    `json:"success"`
	FullName       *string `json:"full_name"`
	Citizenship    *string `json:"citizenship"`
	DocumentNumber *string `json:"document_number"`
}

type HealthResponse struct {
	Status  string   `json:"status"`
	Domains []string `json:"domains"`
}

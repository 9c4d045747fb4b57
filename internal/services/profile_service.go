package services

import (
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/meridianbank/backend/internal/middleware"
	"github.com/meridianbank/backend/internal/models"
)

type ProfileService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewProfileService(db *sql.DB) *ProfileService {
	return &ProfileService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

type UpdateProfileRequest struct {
	FullName    string `json:"full_name" validate:"required,min=2,max=100"`
	Phone       string `json:"phone" validate:"omitempty,max=20"`
	Address     string `json:"address" validate:"omitempty,max=200"`
	City        string `json:"city" validate:"omitempty,max=100"`
	Country     string `json:"country" validate:"omitempty,max=100"`
	DateOfBirth string `json:"date_of_birth" validate:"omitempty,datetime=2006-01-02"`
}

type UpdateSettingsRequest struct {
	EmailNotifications bool   `json:"email_notifications"`
	PushNotifications  bool   `json:"push_notifications"`
	TransactionAlerts  bool   `json:"transaction_alerts"`
	MarketingEmails    bool   `json:"marketing_emails"`
	Theme              string `json:"theme" validate:"omitempty,oneof=light dark system"`
	Language           string `json:"language" validate:"omitempty,max=10"`
	Currency           string `json:"currency" validate:"omitempty,len=3"`
	ProfileVisibility  string `json:"profile_visibility" validate:"omitempty,oneof=public private"`
	DataSharing        bool   `json:"data_sharing"`
}

// GetProfile returns the caller's profile
// @Summary Get profile
// @Description Get the authenticated user's profile
// @Tags profile
// @Produce json
// @Success 200 {object} models.Profile
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /profile [get]
func (ps *ProfileService) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var profile models.Profile
	var fullName, phone, address, city, country, dob, idNumber, idType, avatarURL sql.NullString
	err := ps.db.QueryRow(`
		SELECT id, full_name, phone, address, city, country, date_of_birth::text, id_number, id_type, id_verified, avatar_url, created_at, updated_at
		FROM profiles
		WHERE id = $1`, userID).Scan(
		&profile.ID, &fullName, &phone, &address, &city, &country, &dob,
		&idNumber, &idType, &profile.IDVerified, &avatarURL,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			SendErrorResponse(w, "Profile not found", http.StatusNotFound, nil)
			return
		}
		log.Printf("[PROFILE] Failed to fetch profile for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to fetch profile", http.StatusInternalServerError, nil)
		return
	}

	profile.FullName = fullName.String
	profile.Phone = phone.String
	profile.Address = address.String
	profile.City = city.String
	profile.Country = country.String
	profile.DateOfBirth = dob.String
	profile.IDNumber = idNumber.String
	profile.IDType = idType.String
	profile.AvatarURL = avatarURL.String

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(profile)
}

// UpdateProfile updates the caller's profile fields
// @Summary Update profile
// @Description Update the authenticated user's profile
// @Tags profile
// @Accept json
// @Produce json
// @Param profile body UpdateProfileRequest true "Profile fields"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /profile [put]
func (ps *ProfileService) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var req UpdateProfileRequest
	if !decodeSingleObject(w, r, &req) {
		return
	}

	if err := ps.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, err)
		return
	}

	result, err := ps.db.Exec(`
		UPDATE profiles
		SET full_name = $1, phone = $2, address = $3, city = $4, country = $5,
		    date_of_birth = NULLIF($6, '')::date, updated_at = NOW()
		WHERE id = $7`,
		req.FullName, req.Phone, req.Address, req.City, req.Country, req.DateOfBirth, userID)
	if err != nil {
		log.Printf("[PROFILE] Failed to update profile for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to update profile", http.StatusInternalServerError, nil)
		return
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		SendErrorResponse(w, "Profile not found", http.StatusNotFound, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Profile updated successfully",
	})
}

// GetSettings returns the caller's settings, falling back to defaults when
// no row exists yet (the row is created on first save)
// @Summary Get settings
// @Description Get the authenticated user's preferences
// @Tags settings
// @Produce json
// @Success 200 {object} models.UserSettings
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /settings [get]
func (ps *ProfileService) GetSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var settings models.UserSettings
	err := ps.db.QueryRow(`
		SELECT id, user_id, email_notifications, push_notifications, transaction_alerts, marketing_emails,
		       theme, language, currency, profile_visibility, data_sharing, created_at, updated_at
		FROM user_settings
		WHERE user_id = $1`, userID).Scan(
		&settings.ID, &settings.UserID, &settings.EmailNotifications, &settings.PushNotifications,
		&settings.TransactionAlerts, &settings.MarketingEmails, &settings.Theme, &settings.Language,
		&settings.Currency, &settings.ProfileVisibility, &settings.DataSharing,
		&settings.CreatedAt, &settings.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			settings = defaultSettings(userID)
		} else {
			log.Printf("[SETTINGS] Failed to fetch settings for user %s: %v", userID, err)
			SendErrorResponse(w, "Failed to fetch settings", http.StatusInternalServerError, nil)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(settings)
}

// UpdateSettings upserts the caller's settings row
// @Summary Update settings
// @Description Update the authenticated user's preferences
// @Tags settings
// @Accept json
// @Produce json
// @Param settings body UpdateSettingsRequest true "Settings"
// @Success 200 {object} object{success=bool,message=string}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /settings [put]
func (ps *ProfileService) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	req := UpdateSettingsRequest{
		EmailNotifications: true,
		PushNotifications:  true,
		TransactionAlerts:  true,
		Theme:              "system",
		Language:           "en",
		Currency:           "USD",
		ProfileVisibility:  "private",
	}
	if !decodeSingleObject(w, r, &req) {
		return
	}

	if err := ps.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, err)
		return
	}

	_, err := ps.db.Exec(`
		INSERT INTO user_settings
		(id, user_id, email_notifications, push_notifications, transaction_alerts, marketing_emails,
		 theme, language, currency, profile_visibility, data_sharing, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			email_notifications = EXCLUDED.email_notifications,
			push_notifications = EXCLUDED.push_notifications,
			transaction_alerts = EXCLUDED.transaction_alerts,
			marketing_emails = EXCLUDED.marketing_emails,
			theme = EXCLUDED.theme,
			language = EXCLUDED.language,
			currency = EXCLUDED.currency,
			profile_visibility = EXCLUDED.profile_visibility,
			data_sharing = EXCLUDED.data_sharing,
			updated_at = NOW()`,
		uuid.New().String(), userID, req.EmailNotifications, req.PushNotifications,
		req.TransactionAlerts, req.MarketingEmails, req.Theme, req.Language,
		req.Currency, req.ProfileVisibility, req.DataSharing)
	if err != nil {
		log.Printf("[SETTINGS] Failed to update settings for user %s: %v", userID, err)
		SendErrorResponse(w, "Failed to update settings", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "Settings updated successfully",
	})
}

func defaultSettings(userID string) models.UserSettings {
	return models.UserSettings{
		UserID:             userID,
		EmailNotifications: true,
		PushNotifications:  true,
		TransactionAlerts:  true,
		Theme:              "system",
		Language:           "en",
		Currency:           "USD",
		ProfileVisibility:  "private",
	}
}

func decodeSingleObject(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		SendErrorResponse(w, "Invalid input", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	return true
}

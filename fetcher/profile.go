package fetcher

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/tekdi/user-microservice-sub001/apperrors"
	"github.com/tekdi/user-microservice-sub001/merger"
	"github.com/tekdi/user-microservice-sub001/models"
	"github.com/tekdi/user-microservice-sub001/search"
)

// ProfileData is the profile fragment plus the raw custom field values.
// Field values stay raw here because the profile projection needs the
// applications fragment (to exclude application-scoped fields), which is
// fetched in parallel.
type ProfileData struct {
	Profile   search.Profile
	RawFields []merger.RawCustomField
}

// FetchProfile reads the user row and its custom field values. Missing name
// or email triggers one fallback re-read, then the Defaults placeholders
// apply; a sparse profile never fails the sync.
func (f *Fetcher) FetchProfile(ctx context.Context, userID string) (ProfileData, error) {
	user, err := f.readUser(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProfileData{}, &apperrors.NotFound{Kind: "user", ID: userID}
		}
		return ProfileData{}, err
	}

	if user.FirstName == "" || user.Email == "" {
		// One fallback re-read in case the row was mid-write.
		if again, err := f.readUser(ctx, userID); err == nil {
			user = again
		}
	}
	if user.FirstName == "" {
		user.FirstName = f.defaults.PlaceholderFirstName
	}
	if user.LastName == "" {
		user.LastName = f.defaults.PlaceholderLastName
	}
	if user.Email == "" {
		user.Email = f.defaults.PlaceholderEmail(userID)
	}

	rawFields, err := f.readCustomFields(ctx, userID)
	if err != nil {
		f.log.Warn().Err(err).Str("userId", userID).Msg("custom field read failed; continuing without custom fields")
		rawFields = nil
	}

	return ProfileData{
		Profile: search.Profile{
			Username:  user.Username,
			FirstName: user.FirstName,
			LastName:  user.LastName,
			Email:     user.Email,
			Mobile:    user.Mobile,
			Gender:    user.Gender,
			Dob:       user.Dob,
			Status:    user.Status,
		},
		RawFields: rawFields,
	}, nil
}

func (f *Fetcher) readUser(ctx context.Context, userID string) (models.User, error) {
	var user models.User
	err := f.db.WithContext(ctx).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		First(&user).Error
	return user, err
}

func (f *Fetcher) readCustomFields(ctx context.Context, userID string) ([]merger.RawCustomField, error) {
	var values []models.FieldValue
	if err := f.db.WithContext(ctx).
		Where("item_id = ? AND is_deleted = ?", userID, false).
		Find(&values).Error; err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}

	fieldIDs := make([]string, 0, len(values))
	for _, v := range values {
		fieldIDs = append(fieldIDs, v.FieldID)
	}
	var fields []models.Field
	if err := f.db.WithContext(ctx).
		Where("field_id IN ? AND is_deleted = ?", fieldIDs, false).
		Find(&fields).Error; err != nil {
		return nil, err
	}
	fieldByID := make(map[string]models.Field, len(fields))
	for _, fld := range fields {
		fieldByID[fld.FieldID] = fld
	}

	raw := make([]merger.RawCustomField, 0, len(values))
	for _, v := range values {
		fld, ok := fieldByID[v.FieldID]
		if !ok {
			f.log.Warn().Str("fieldId", v.FieldID).Str("userId", userID).Msg("field value without field definition; skipping")
			continue
		}
		raw = append(raw, merger.RawCustomField{
			FieldID: fld.FieldID,
			Code:    fld.Code,
			Label:   fld.Label,
			Type:    fld.Type,
			Context: fld.Context,
			Value:   v.Value,
		})
	}
	return raw, nil
}

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 CuraDocs Contributors

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/curadocs-dev/curadocs/internal/identity"
	"github.com/curadocs-dev/curadocs/internal/store"
)

func (s *Server) registerProfileRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-profile",
		Method:      http.MethodGet,
		Path:        "/api/profile",
		Summary:     "Get own profile",
		Tags:        []string{"profile"},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "update-profile",
		Method:      http.MethodPut,
		Path:        "/api/profile",
		Summary:     "Update own profile",
		Tags:        []string{"profile"},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "list-patients",
		Method:      http.MethodGet,
		Path:        "/api/clinician/patients",
		Summary:     "List patient accounts",
		Description: "Clinician-only listing of patient profiles, newest first.",
		Tags:        []string{"clinician"},
	}, s.handleListPatients)
}

// profileView is the REST representation of a portal account. Exactly one of
// Clinician or Patient is set, matching Role.
type profileView struct {
	ID        string               `json:"id" doc:"Account identifier"`
	Name      string               `json:"name" doc:"Display name"`
	Email     string               `json:"email" doc:"Contact email"`
	Role      string               `json:"role" doc:"clinician or patient"`
	Active    bool                 `json:"active" doc:"Whether the account can sign in"`
	Clinician *store.ClinicianInfo `json:"clinician,omitempty"`
	Patient   *store.PatientInfo   `json:"patient,omitempty"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

type getProfileOutput struct {
	Body struct {
		Success bool        `json:"success"`
		Data    profileView `json:"data"`
	}
}

type updateProfileInput struct {
	Body struct {
		Name      string               `json:"name,omitempty" doc:"New display name"`
		Clinician *store.ClinicianInfo `json:"clinician,omitempty" doc:"Clinician fields, clinician accounts only"`
		Patient   *store.PatientInfo   `json:"patient,omitempty" doc:"Patient fields, patient accounts only"`
	}
}

type listPatientsInput struct {
	Limit  int `query:"limit" default:"50" minimum:"1" maximum:"200"`
	Offset int `query:"offset" default:"0" minimum:"0"`
}

type listPatientsOutput struct {
	Body struct {
		Success bool          `json:"success"`
		Data    []profileView `json:"data"`
	}
}

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*getProfileOutput, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	profile, err := s.services.profiles.Get(ctx, id.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("profile not found")
		}
		s.logger.Error("profile lookup failed", "profile_id", id.ID, "error", err)
		return nil, huma.Error500InternalServerError("Failed to retrieve profile")
	}

	out := &getProfileOutput{}
	out.Body.Success = true
	out.Body.Data = toProfileView(profile)
	return out, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *updateProfileInput) (*getProfileOutput, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}

	profile, err := s.services.profiles.Get(ctx, id.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, huma.Error404NotFound("profile not found")
		}
		s.logger.Error("profile lookup failed", "profile_id", id.ID, "error", err)
		return nil, huma.Error500InternalServerError("Failed to update profile")
	}

	if input.Body.Name != "" {
		profile.Name = input.Body.Name
	}
	// Role payloads may only be replaced with the payload matching the
	// account's role; the discriminator itself is immutable.
	if input.Body.Clinician != nil {
		if profile.Role != store.RoleClinician {
			return nil, huma.Error400BadRequest("clinician fields are not valid for this account")
		}
		profile.Clinician = input.Body.Clinician
	}
	if input.Body.Patient != nil {
		if profile.Role != store.RolePatient {
			return nil, huma.Error400BadRequest("patient fields are not valid for this account")
		}
		profile.Patient = input.Body.Patient
	}
	profile.UpdatedAt = time.Now().UTC()

	if err := s.services.profiles.Put(ctx, profile); err != nil {
		s.logger.Error("profile update failed", "profile_id", id.ID, "error", err)
		return nil, huma.Error500InternalServerError("Failed to update profile")
	}

	out := &getProfileOutput{}
	out.Body.Success = true
	out.Body.Data = toProfileView(profile)
	return out, nil
}

func (s *Server) handleListPatients(ctx context.Context, input *listPatientsInput) (*listPatientsOutput, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("authentication required")
	}
	if err := identity.RequireRole(id, store.RoleClinician); err != nil {
		return nil, huma.Error403Forbidden("clinician role required")
	}

	profiles, err := s.services.profiles.ListByRole(ctx, store.RolePatient, store.ListOpts{
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		s.logger.Error("patient listing failed", "clinician_id", id.ID, "error", err)
		return nil, huma.Error500InternalServerError("Failed to list patients")
	}

	out := &listPatientsOutput{}
	out.Body.Success = true
	out.Body.Data = make([]profileView, 0, len(profiles))
	for _, p := range profiles {
		out.Body.Data = append(out.Body.Data, toProfileView(p))
	}
	return out, nil
}

func toProfileView(p *store.Profile) profileView {
	return profileView{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Role:      string(p.Role),
		Active:    p.Active,
		Clinician: p.Clinician,
		Patient:   p.Patient,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

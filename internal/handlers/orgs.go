package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"diversityorgs/internal/authz"
	"diversityorgs/internal/config"
	"diversityorgs/internal/db"
	"diversityorgs/internal/focus"
	"diversityorgs/internal/forms"
	"diversityorgs/internal/listing"
	"diversityorgs/internal/middleware"
	"diversityorgs/internal/models"
	"diversityorgs/internal/moderation"
)

// maxSlugAttempts bounds the numbered suffixes tried for a taken slug.
const maxSlugAttempts = 20

// OrgHandler serves organization pages and forms.
type OrgHandler struct {
	store      Store
	cfg        *config.Config
	authz      *authz.Authorizer
	moderation *moderation.Service
}

// NewOrgHandler creates a new organization handler.
func NewOrgHandler(store Store, cfg *config.Config, authorizer *authz.Authorizer, svc *moderation.Service) *OrgHandler {
	return &OrgHandler{store: store, cfg: cfg, authz: authorizer, moderation: svc}
}

// List renders every organization.
func (h *OrgHandler) List(c fiber.Ctx) error {
	orgs, err := h.store.FilterOrganizations(c.Context(), models.OrganizationFilter{})
	if err != nil {
		return err
	}
	return render(c, h.cfg, "orgs/list", fiber.Map{
		"Listing": &listing.Listing{View: "all", Organizations: orgs},
	})
}

// Show renders an organization with its related focuses and similar
// organizations.
func (h *OrgHandler) Show(c fiber.Ctx) error {
	org, err := h.store.GetOrganizationBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return notFound(err)
	}

	diversity, technology := focus.Related(org)
	similar, err := focus.Similar(c.Context(), h.store, org)
	if err != nil {
		return err
	}

	user := middleware.User(c)
	return render(c, h.cfg, "orgs/detail", fiber.Map{
		"Org":               org,
		"RelatedDiversity":  diversity,
		"RelatedTechnology": technology,
		"Similar":           similar,
		"IsOrganizer":       h.authz.CanModify(user, org),
		"User":              user,
	})
}

// New renders an empty organization form.
func (h *OrgHandler) New(c fiber.Ctx) error {
	return h.renderForm(c, fiber.StatusOK, nil, forms.OrganizationForm{}, nil)
}

// Create validates the form, resolves its relations and saves a new
// organization with the current user as its first organizer.
func (h *OrgHandler) Create(c fiber.Ctx) error {
	user := middleware.User(c)

	var form forms.OrganizationForm
	if err := c.Bind().Form(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form")
	}
	if err := forms.Validate(&form); err != nil {
		return h.renderForm(c, fiber.StatusBadRequest, nil, form, formErrors(err))
	}

	org := &models.Organization{}
	form.Apply(org)
	focusIDs, err := h.resolveRelations(c.Context(), &form, org)
	if errors.Is(err, db.ErrParentNotFound) {
		return h.renderForm(c, fiber.StatusBadRequest, nil, form, forms.Errors{"parent": "Unknown parent organization"})
	}
	if err != nil {
		return err
	}

	if err := h.insert(c.Context(), org, focusIDs, user.ID); err != nil {
		if errors.Is(err, db.ErrDuplicateSlug) {
			return h.renderForm(c, fiber.StatusBadRequest, nil, form, forms.Errors{"name": err.Error()})
		}
		return err
	}

	log.Info().Str("slug", org.Slug).Str("user", user.Email).Msg("organization created")
	return c.Redirect().To("/orgs/" + org.Slug + "/")
}

// insert creates org under the first free slug derived from its name.
func (h *OrgHandler) insert(ctx context.Context, org *models.Organization, focusIDs []uuid.UUID, organizerID uuid.UUID) error {
	base := forms.Slugify(org.Name)
	if base == "" {
		base = "org"
	}
	for i := 1; i <= maxSlugAttempts; i++ {
		org.Slug = base
		if i > 1 {
			org.Slug = fmt.Sprintf("%s-%d", base, i)
		}
		err := h.store.CreateOrganization(ctx, org, focusIDs, organizerID)
		if !errors.Is(err, db.ErrDuplicateSlug) {
			return err
		}
	}
	return db.ErrDuplicateSlug
}

// loadModifiable returns the organization named by the slug parameter if the
// current user may modify it. Everyone else gets a 404.
func (h *OrgHandler) loadModifiable(c fiber.Ctx) (*models.Organization, error) {
	org, err := h.store.GetOrganizationBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return nil, notFound(err)
	}
	if !h.authz.CanModify(middleware.User(c), org) {
		return nil, fiber.NewError(fiber.StatusNotFound, "Not Found")
	}
	return org, nil
}

// Edit renders the update form pre-filled with the organization's values.
func (h *OrgHandler) Edit(c fiber.Ctx) error {
	org, err := h.loadModifiable(c)
	if err != nil {
		return err
	}
	return h.renderForm(c, fiber.StatusOK, org, forms.InitialValues(org), nil)
}

// Update saves the update form. A non-empty organizer list replaces the
// organizers; every address must belong to a known user.
func (h *OrgHandler) Update(c fiber.Ctx) error {
	org, err := h.loadModifiable(c)
	if err != nil {
		return err
	}

	var form forms.OrganizationForm
	if err := c.Bind().Form(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form")
	}
	if err := forms.Validate(&form); err != nil {
		return h.renderForm(c, fiber.StatusBadRequest, org, form, formErrors(err))
	}

	var organizerIDs []uuid.UUID
	if emails := forms.ParseNames(form.Organizers); len(emails) > 0 {
		users, err := h.store.GetUsersByEmails(c.Context(), emails)
		if err != nil {
			return err
		}
		if missing := missingEmails(emails, users); len(missing) > 0 {
			return h.renderForm(c, fiber.StatusBadRequest, org, form, forms.Errors{
				"organizers": "No account for " + strings.Join(missing, ", "),
			})
		}
		organizerIDs = make([]uuid.UUID, 0, len(users))
		for _, u := range users {
			organizerIDs = append(organizerIDs, u.ID)
		}
	}

	form.Apply(org)
	focusIDs, err := h.resolveRelations(c.Context(), &form, org)
	if errors.Is(err, db.ErrParentNotFound) {
		return h.renderForm(c, fiber.StatusBadRequest, org, form, forms.Errors{"parent": "Unknown parent organization"})
	}
	if err != nil {
		return err
	}
	if err := h.store.UpdateOrganization(c.Context(), org, focusIDs, organizerIDs); err != nil {
		return notFound(err)
	}

	log.Info().Str("slug", org.Slug).Str("user", middleware.User(c).Email).Msg("organization updated")
	return c.Redirect().To("/orgs/" + org.Slug + "/")
}

// resolveRelations points org at the parent and location named in the form,
// creating the location if needed, and returns the ids of the named focuses,
// creating unknown ones. An unknown parent is db.ErrParentNotFound.
func (h *OrgHandler) resolveRelations(ctx context.Context, form *forms.OrganizationForm, org *models.Organization) ([]uuid.UUID, error) {
	org.ParentID, org.Parent = nil, nil
	if name := strings.TrimSpace(form.Parent); name != "" {
		parent, err := h.store.GetParentOrganizationByName(ctx, name)
		if err != nil {
			return nil, err
		}
		org.ParentID, org.Parent = &parent.ID, parent
	}

	org.LocationID, org.Location = nil, nil
	if loc := forms.ParseLocation(form.Location); loc != nil {
		if err := h.store.GetOrCreateLocation(ctx, loc); err != nil {
			return nil, fmt.Errorf("failed to resolve location: %w", err)
		}
		org.LocationID, org.Location = &loc.ID, loc
	}

	var ids []uuid.UUID
	for _, axis := range []struct {
		kind  models.FocusKind
		names string
	}{
		{models.FocusDiversity, form.DiversityFocus},
		{models.FocusTechnology, form.TechnologyFocus},
	} {
		for _, name := range forms.ParseNames(axis.names) {
			f, err := h.store.GetOrCreateFocus(ctx, axis.kind, name)
			if err != nil {
				return nil, fmt.Errorf("failed to resolve focus %q: %w", name, err)
			}
			ids = append(ids, f.ID)
		}
	}
	return ids, nil
}

func (h *OrgHandler) renderForm(c fiber.Ctx, status int, org *models.Organization, form forms.OrganizationForm, errs forms.Errors) error {
	c.Status(status)
	return render(c, h.cfg, "orgs/form", fiber.Map{
		"Org":      org,
		"Form":     form,
		"Errors":   errs,
		"OrgTypes": models.OrgTypes,
	})
}

// SuggestEdit renders the suggestion form pre-filled with current values.
func (h *OrgHandler) SuggestEdit(c fiber.Ctx) error {
	org, err := h.store.GetOrganizationBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return notFound(err)
	}
	return h.renderSuggest(c, fiber.StatusOK, org, forms.SuggestionFrom(org), nil)
}

// SubmitSuggestEdit queues the changed fields for moderators.
func (h *OrgHandler) SubmitSuggestEdit(c fiber.Ctx) error {
	org, err := h.store.GetOrganizationBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return notFound(err)
	}

	var form forms.SuggestEditForm
	if err := c.Bind().Form(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form")
	}
	if err := forms.Validate(&form); err != nil {
		return h.renderSuggest(c, fiber.StatusBadRequest, org, form, formErrors(err))
	}

	_, err = h.moderation.SubmitEdit(c.Context(), org, middleware.User(c), form.Changes(forms.SuggestionFrom(org)))
	if errors.Is(err, moderation.ErrEmptyEdit) {
		return h.renderSuggest(c, fiber.StatusBadRequest, org, form, forms.Errors{"form": "Change at least one field or leave a note"})
	}
	if err != nil {
		return err
	}
	return h.thanks(c, org, "Thanks! Your suggestion was sent to the moderators.")
}

func (h *OrgHandler) renderSuggest(c fiber.Ctx, status int, org *models.Organization, form forms.SuggestEditForm, errs forms.Errors) error {
	c.Status(status)
	return render(c, h.cfg, "orgs/suggest", fiber.Map{
		"Org":      org,
		"Form":     form,
		"Errors":   errs,
		"OrgTypes": models.OrgTypes,
	})
}

// Report renders the violation report form.
func (h *OrgHandler) Report(c fiber.Ctx) error {
	org, err := h.store.GetOrganizationBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return notFound(err)
	}
	return h.renderOrgForm(c, fiber.StatusOK, "orgs/report", org, forms.ViolationReportForm{}, nil)
}

// SubmitReport queues a violation report for moderators.
func (h *OrgHandler) SubmitReport(c fiber.Ctx) error {
	org, err := h.store.GetOrganizationBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return notFound(err)
	}

	var form forms.ViolationReportForm
	if err := c.Bind().Form(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form")
	}
	if err := forms.Validate(&form); err != nil {
		return h.renderOrgForm(c, fiber.StatusBadRequest, "orgs/report", org, form, formErrors(err))
	}

	_, err = h.moderation.SubmitViolation(c.Context(), org, middleware.User(c), form.Report)
	if errors.Is(err, moderation.ErrEmptyReport) {
		return h.renderOrgForm(c, fiber.StatusBadRequest, "orgs/report", org, form, forms.Errors{"report": "This field is required"})
	}
	if err != nil {
		return err
	}
	return h.thanks(c, org, "Thanks! Your report was sent to the moderators.")
}

// Claim renders the claim form.
func (h *OrgHandler) Claim(c fiber.Ctx) error {
	org, err := h.store.GetOrganizationBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return notFound(err)
	}
	return h.renderOrgForm(c, fiber.StatusOK, "orgs/claim", org, forms.ClaimForm{}, nil)
}

// SubmitClaim records a pending claim for moderators to approve.
func (h *OrgHandler) SubmitClaim(c fiber.Ctx) error {
	org, err := h.store.GetOrganizationBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		return notFound(err)
	}

	var form forms.ClaimForm
	if err := c.Bind().Form(&form); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid form")
	}
	if err := forms.Validate(&form); err != nil {
		return h.renderOrgForm(c, fiber.StatusBadRequest, "orgs/claim", org, form, formErrors(err))
	}

	_, err = h.moderation.RequestClaim(c.Context(), org, middleware.User(c), form.Message)
	switch {
	case errors.Is(err, moderation.ErrUnauthenticated):
		return c.Redirect().To("/login")
	case errors.Is(err, db.ErrDuplicateClaim), errors.Is(err, moderation.ErrAlreadyOrganizer):
		return h.renderOrgForm(c, fiber.StatusConflict, "orgs/claim", org, form, forms.Errors{"form": err.Error()})
	case err != nil:
		return err
	}
	return h.thanks(c, org, "Thanks! A moderator will review your claim.")
}

func (h *OrgHandler) renderOrgForm(c fiber.Ctx, status int, name string, org *models.Organization, form any, errs forms.Errors) error {
	c.Status(status)
	return render(c, h.cfg, name, fiber.Map{"Org": org, "Form": form, "Errors": errs})
}

func (h *OrgHandler) thanks(c fiber.Ctx, org *models.Organization, message string) error {
	return render(c, h.cfg, "orgs/thanks", fiber.Map{"Org": org, "Message": message})
}

// formErrors unwraps validation errors. Anything else is reported on the
// whole form.
func formErrors(err error) forms.Errors {
	var errs forms.Errors
	if errors.As(err, &errs) {
		return errs
	}
	return forms.Errors{"form": err.Error()}
}

// missingEmails returns the addresses in emails with no matching user.
func missingEmails(emails []string, users []models.User) []string {
	known := make(map[string]bool, len(users))
	for _, u := range users {
		known[strings.ToLower(u.Email)] = true
	}
	var missing []string
	for _, e := range emails {
		if !known[strings.ToLower(e)] {
			missing = append(missing, e)
		}
	}
	return missing
}

package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/waap-dev/waap/internal/domain"
)

// parseIntParam parses an integer parameter from a string and returns a meaningful error
func parseIntParam(param string, paramName string) (int, error) {
	val, err := strconv.Atoi(param)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: must be an integer", paramName)
	}
	return val, nil
}

func postingIdParam(r *http.Request) (domain.PostingId, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid posting id: must be an integer")
	}
	return id, nil
}

// parseListingFilter builds a ListingFilter from list query parameters.
// Absent parameters stay nil so the storage layer skips the predicate.
func parseListingFilter(r *http.Request) (domain.ListingFilter, error) {
	var filter domain.ListingFilter
	query := r.URL.Query()

	if raw := query.Get("department_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid department_id: must be an integer")
		}
		filter.DepartmentId = &id
	}
	if raw := query.Get("location"); raw != "" {
		filter.Location = &raw
	}
	if raw := query.Get("classification_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, fmt.Errorf("invalid classification_id: must be an integer")
		}
		filter.ClassificationId = &id
	}
	if raw := query.Get("level"); raw != "" {
		level, err := parseIntParam(raw, "level")
		if err != nil {
			return filter, err
		}
		filter.Level = &level
	}
	if raw := query.Get("alternation_type"); raw != "" {
		t := domain.ClassificationType(raw)
		filter.AlternationType = &t
	}
	if raw := query.Get("language_profile"); raw != "" {
		p := domain.LanguageProfile(raw)
		filter.LanguageProfile = &p
	}
	if raw := query.Get("posted_after"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid posted_after: must be RFC3339")
		}
		filter.PostedAfter = &ts
	}
	if raw := query.Get("posted_before"); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fmt.Errorf("invalid posted_before: must be RFC3339")
		}
		filter.PostedBefore = &ts
	}
	filter.SortBy = domain.SortField(query.Get("sort_by"))
	filter.SortDirection = domain.SortDirection(query.Get("sort_direction"))

	return filter, nil
}

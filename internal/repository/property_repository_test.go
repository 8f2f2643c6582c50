package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/smoothmove/internal/model"
)

func TestPropertyRepo(t *testing.T) {
	db := newTestDB(t)
	users := NewUserRepo(db)
	props := NewPropertyRepo(db)
	ctx := context.Background()

	owner := mustUser(t, users, "owner@example.com")
	other := mustUser(t, users, "other@example.com")

	avail := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	loft := mustProperty(t, props, &model.Property{
		OwnerID:       owner.ID,
		Title:         "Sunny Loft",
		Description:   "Bright open space near the lake",
		CostPerMonth:  2400,
		Street:        "1 King St W",
		City:          "Toronto",
		Province:      "Ontario",
		PostCode:      "M5H 1A1",
		Country:       "Canada",
		Area:          80,
		Bathrooms:     1,
		Bedrooms:      2,
		AvailableFrom: &avail,
		Images:        []string{"http://img/1.jpg", "http://img/2.jpg", "http://img/3.jpg"},
	})
	cabin := mustProperty(t, props, &model.Property{
		OwnerID:     other.ID,
		Title:       "Quiet Cabin",
		Description: "A sunny porch, 100% off-grid",
		City:        "Vancouver",
		Province:    "British Columbia",
		PostCode:    "V6B 2W9",
		Country:     "Canada",
	})

	t.Run("AddProperty returns the stored row", func(t *testing.T) {
		if loft.ID == 0 || cabin.ID == 0 || loft.ID == cabin.ID {
			t.Fatalf("unexpected ids %d, %d", loft.ID, cabin.ID)
		}
		if loft.OwnerID != owner.ID || loft.CostPerMonth != 2400 || loft.Bedrooms != 2 {
			t.Errorf("unexpected row: %+v", loft)
		}
		if loft.AvailableFrom == nil || loft.AvailableFrom.Format(time.DateOnly) != "2024-09-01" {
			t.Errorf("available_from = %v, want 2024-09-01", loft.AvailableFrom)
		}
		if cabin.AvailableFrom != nil {
			t.Errorf("available_from = %v, want nil", cabin.AvailableFrom)
		}
	})

	t.Run("AddProperty rejects unknown owner", func(t *testing.T) {
		_, err := props.AddProperty(ctx, &model.Property{OwnerID: 9999, Title: "Ghost", City: "Nowhere"})
		if err == nil {
			t.Fatal("expected constraint violation")
		}
		if !props.IsConstraintViolation(err) {
			t.Errorf("expected constraint violation, got %v", err)
		}
	})

	t.Run("GetPropertyByID collects three images", func(t *testing.T) {
		p, err := props.GetPropertyByID(ctx, loft.ID)
		if err != nil {
			t.Fatalf("GetPropertyByID failed: %v", err)
		}
		if p == nil {
			t.Fatal("expected property")
		}
		if len(p.Images) != 3 {
			t.Fatalf("images = %v, want 3", p.Images)
		}
		if p.Images[0] != "http://img/1.jpg" || p.Images[2] != "http://img/3.jpg" {
			t.Errorf("images out of order: %v", p.Images)
		}
		if p.Title != "Sunny Loft" {
			t.Errorf("title = %q", p.Title)
		}
	})

	t.Run("GetPropertyByID without images returns empty list", func(t *testing.T) {
		p, err := props.GetPropertyByID(ctx, cabin.ID)
		if err != nil || p == nil {
			t.Fatalf("GetPropertyByID = %v, %v", p, err)
		}
		if p.Images == nil || len(p.Images) != 0 {
			t.Errorf("images = %#v, want empty non-nil slice", p.Images)
		}
	})

	t.Run("GetPropertyByID unknown id returns nil", func(t *testing.T) {
		p, err := props.GetPropertyByID(ctx, 424242)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if p != nil {
			t.Errorf("expected nil, got %+v", p)
		}
	})

	t.Run("ListProperties filters", func(t *testing.T) {
		tests := []struct {
			name string
			s    PropertySearch
			want []uint64
		}{
			{"no filters", PropertySearch{}, []uint64{loft.ID, cabin.ID}},
			{"city lower", PropertySearch{City: "toronto"}, []uint64{loft.ID}},
			{"city upper", PropertySearch{City: "TORONTO"}, []uint64{loft.ID}},
			{"city substring", PropertySearch{City: "couv"}, []uint64{cabin.ID}},
			{"province ignores case", PropertySearch{Province: "british"}, []uint64{cabin.ID}},
			{"keyword in title", PropertySearch{Keyword: "Sunny"}, []uint64{loft.ID}},
			{"keyword is case-sensitive", PropertySearch{Keyword: "sunny"}, []uint64{cabin.ID}},
			{"keyword in description", PropertySearch{Keyword: "lake"}, []uint64{loft.ID}},
			{"postcode exact case", PropertySearch{PostCode: "M5H"}, []uint64{loft.ID}},
			{"postcode is case-sensitive", PropertySearch{PostCode: "m5h"}, nil},
			{"wildcards are literal", PropertySearch{Keyword: "100%"}, []uint64{cabin.ID}},
			{"underscore is literal", PropertySearch{Keyword: "_"}, nil},
			{"filters combine with AND", PropertySearch{City: "toronto", Keyword: "Cabin"}, nil},
			{"limit", PropertySearch{Limit: 1}, []uint64{loft.ID}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				got, err := props.ListProperties(ctx, tt.s)
				if err != nil {
					t.Fatalf("ListProperties failed: %v", err)
				}
				if got == nil {
					t.Fatal("expected non-nil slice")
				}
				if len(got) != len(tt.want) {
					t.Fatalf("got %d rows, want %d", len(got), len(tt.want))
				}
				for i, p := range got {
					if p.ID != tt.want[i] {
						t.Errorf("row %d id = %d, want %d", i, p.ID, tt.want[i])
					}
				}
			})
		}
	})

	t.Run("ListProperties includes images", func(t *testing.T) {
		got, err := props.ListProperties(ctx, PropertySearch{})
		if err != nil {
			t.Fatalf("ListProperties failed: %v", err)
		}
		if len(got) != 2 {
			t.Fatalf("got %d rows, want 2", len(got))
		}
		if len(got[0].Images) != 3 || got[0].Images[0] != "http://img/1.jpg" {
			t.Errorf("loft images = %v", got[0].Images)
		}
		if got[1].Images == nil || len(got[1].Images) != 0 {
			t.Errorf("cabin images = %#v, want empty non-nil slice", got[1].Images)
		}
	})

	t.Run("AddImage appends", func(t *testing.T) {
		img, err := props.AddImage(ctx, cabin.ID, "http://img/cabin.jpg")
		if err != nil {
			t.Fatalf("AddImage failed: %v", err)
		}
		if img.ID == 0 || img.PropertyID != cabin.ID || img.URL != "http://img/cabin.jpg" {
			t.Errorf("unexpected image: %+v", img)
		}
		imgs, err := props.ListImages(ctx, cabin.ID)
		if err != nil || len(imgs) != 1 {
			t.Fatalf("ListImages = %v, %v", imgs, err)
		}
	})

	t.Run("AddImage unknown property", func(t *testing.T) {
		_, err := props.AddImage(ctx, 777777, "http://img/x.jpg")
		if !props.IsConstraintViolation(err) {
			t.Errorf("expected foreign key violation, got %v", err)
		}
	})

	t.Run("DeletePropertyByIDAndOwner rejects other users", func(t *testing.T) {
		_, err := props.DeletePropertyByIDAndOwner(ctx, loft.ID, other.ID)
		if !errors.Is(err, ErrForbidden) {
			t.Fatalf("expected ErrForbidden, got %v", err)
		}
		p, _ := props.GetPropertyByID(ctx, loft.ID)
		if p == nil || len(p.Images) != 3 {
			t.Error("rejected delete must leave the property and its images")
		}
	})

	t.Run("DeletePropertyByID removes property and images", func(t *testing.T) {
		deleted, err := props.DeletePropertyByID(ctx, loft.ID)
		if err != nil {
			t.Fatalf("DeletePropertyByID failed: %v", err)
		}
		if deleted == nil || deleted.ID != loft.ID || len(deleted.Images) != 3 {
			t.Fatalf("unexpected deleted row: %+v", deleted)
		}

		p, err := props.GetPropertyByID(ctx, loft.ID)
		if err != nil || p != nil {
			t.Errorf("refetch = %+v, %v; want nil, nil", p, err)
		}
		imgs, err := props.ListImages(ctx, loft.ID)
		if err != nil || len(imgs) != 0 {
			t.Errorf("orphan images left: %v, %v", imgs, err)
		}
	})

	t.Run("DeletePropertyByID unknown id returns nil", func(t *testing.T) {
		p, err := props.DeletePropertyByID(ctx, loft.ID)
		if err != nil || p != nil {
			t.Errorf("second delete = %+v, %v; want nil, nil", p, err)
		}
	})

	t.Run("owner delete succeeds", func(t *testing.T) {
		p, err := props.DeletePropertyByIDAndOwner(ctx, cabin.ID, other.ID)
		if err != nil || p == nil {
			t.Fatalf("DeletePropertyByIDAndOwner = %+v, %v", p, err)
		}
		if len(p.Images) != 1 {
			t.Errorf("deleted images = %v, want 1", p.Images)
		}
	})
}

func TestListPropertiesFoldsNonASCII(t *testing.T) {
	db := newTestDB(t)
	props := NewPropertyRepo(db)
	owner := mustUser(t, NewUserRepo(db), "owner@example.com")
	ctx := context.Background()

	flat := mustProperty(t, props, &model.Property{
		OwnerID:  owner.ID,
		Title:    "Plateau flat",
		City:     "Montréal",
		Province: "Québec",
		PostCode: "H2T 1S6",
	})

	tests := []struct {
		name string
		s    PropertySearch
		want int
	}{
		{"city as stored", PropertySearch{City: "Montréal"}, 1},
		{"city lower", PropertySearch{City: "montréal"}, 1},
		{"city upper", PropertySearch{City: "MONTRÉAL"}, 1},
		{"city substring upper", PropertySearch{City: "TRÉ"}, 1},
		{"province upper", PropertySearch{Province: "QUÉBEC"}, 1},
		{"province and city", PropertySearch{City: "MONTRÉAL", Province: "québec"}, 1},
		{"accent still matters", PropertySearch{City: "MONTREAL"}, 0},
		{"keyword stays case-sensitive", PropertySearch{Keyword: "PLATEAU"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := props.ListProperties(ctx, tt.s)
			if err != nil {
				t.Fatalf("ListProperties failed: %v", err)
			}
			if len(got) != tt.want {
				t.Fatalf("got %d rows, want %d", len(got), tt.want)
			}
			if tt.want == 1 && got[0].ID != flat.ID {
				t.Errorf("id = %d, want %d", got[0].ID, flat.ID)
			}
		})
	}
}

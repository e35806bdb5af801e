package form

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/atinyakov/BookKeeper/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestValidation(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		wantName    string
		wantDescErr string
	}{
		{"empty", "", NameErrorMessage, DescriptionErrorMessage},
		{"two chars", "Ab", NameErrorMessage, DescriptionErrorMessage},
		{"three chars", "Abc", "", ""},
		{"twenty chars", strings.Repeat("a", 20), "", ""},
		{"twenty one chars", strings.Repeat("a", 21), NameErrorMessage, ""},
		{"hundred chars", strings.Repeat("a", 100), NameErrorMessage, ""},
		{"hundred one chars", strings.Repeat("a", 101), NameErrorMessage, DescriptionErrorMessage},
		{"multibyte counted as runes", "Żółw", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantName, ValidateName(tt.value))
			assert.Equal(t, tt.wantDescErr, ValidateDescription(tt.value))
		})
	}
	assert.Equal(t, "Name must be between 3 and 20 characters", NameErrorMessage)
	assert.Equal(t, "Description must be between 3 and 100 characters", DescriptionErrorMessage)
}

func TestShortNameBlocksSubmission(t *testing.T) {
	f := New()
	f.SetName("Ab")
	f.SetDescription("A fine book")

	v := f.View()
	assert.Equal(t, "Name must be between 3 and 20 characters", v.NameError)
	assert.Empty(t, v.DescriptionError)
	assert.False(t, v.CanSubmit)

	_, err := f.BeginSubmit()
	assert.ErrorIs(t, err, ErrCannotSubmit)
	assert.False(t, f.View().InFlight)
}

func TestEditBeforeFetchKeepsFields(t *testing.T) {
	f := New()
	f.SetName("Draft")
	f.SetDescription("unsaved text")

	f.EnableEdit(2)
	v := f.View()
	assert.Equal(t, EditMode(2), v.Mode)
	assert.Equal(t, "Draft", v.Name)
	assert.Equal(t, "unsaved text", v.Description)

	require.True(t, f.ApplyFetched(2, models.Book{ID: 2, Name: "Foo", Description: "bar"}))
	v = f.View()
	assert.Equal(t, "Foo", v.Name)
	assert.Equal(t, "bar", v.Description)
	assert.Equal(t, "", v.NameError)
	assert.Equal(t, "", v.DescriptionError)
}

func TestLateFetchIgnored(t *testing.T) {
	f := New()
	f.EnableEdit(1)
	f.EnableEdit(2)
	assert.False(t, f.ApplyFetched(1, models.Book{ID: 1, Name: "Dune", Description: "desc"}))
	assert.Empty(t, f.View().Name)

	f.Cancel()
	assert.False(t, f.ApplyFetched(2, models.Book{ID: 2, Name: "Foo", Description: "bar"}))
	assert.Equal(t, CreateMode(), f.Mode())
	assert.Empty(t, f.View().Name)
}

func TestCancelClearsEverything(t *testing.T) {
	f := New()
	f.EnableEdit(5)
	f.SetName("x")
	f.SetDescription("y")

	f.Cancel()
	assert.Equal(t, View{Mode: CreateMode()}, f.View())
}

func TestSubmitLifecycle(t *testing.T) {
	f := New()
	f.EnableEdit(7)
	f.SetName("Emma")
	f.SetDescription("Austen")
	require.True(t, f.CanSubmit())

	sub, err := f.BeginSubmit()
	require.NoError(t, err)
	assert.Equal(t, Submission{Mode: EditMode(7), Name: "Emma", Description: "Austen"}, sub)
	assert.False(t, f.CanSubmit(), "in-flight submission blocks another")

	f.FinishSubmit(errors.New("boom"))
	v := f.View()
	assert.Equal(t, SubmitFailedMessage, v.SubmitError)
	assert.Equal(t, "Emma", v.Name)
	assert.Equal(t, EditMode(7), v.Mode)
	assert.True(t, v.CanSubmit)

	_, err = f.BeginSubmit()
	require.NoError(t, err)
	assert.Empty(t, f.View().SubmitError)
	f.FinishSubmit(nil)
	assert.Equal(t, View{Mode: CreateMode()}, f.View())
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "create", CreateMode().String())
	assert.Equal(t, "edit(3)", EditMode(3).String())
	_, editing := CreateMode().Target()
	assert.False(t, editing)
}

func TestValidationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		f := New()
		if rapid.Bool().Draw(t, "edit") {
			f.EnableEdit(rapid.Int64().Draw(t, "id"))
		}
		name := rapid.StringN(0, 30, -1).Draw(t, "name")
		desc := rapid.StringN(0, 120, -1).Draw(t, "description")
		inFlight := rapid.Bool().Draw(t, "inFlight")

		f.SetName(name)
		f.SetDescription(desc)
		began := false
		if inFlight {
			_, err := f.BeginSubmit()
			began = err == nil
		}
		v := f.View()

		nl, dl := utf8.RuneCountInString(name), utf8.RuneCountInString(desc)
		if (v.NameError != "") != (nl < 3 || nl > 20) {
			t.Fatalf("name %q: error %q", name, v.NameError)
		}
		if (v.DescriptionError != "") != (dl < 3 || dl > 100) {
			t.Fatalf("description %q: error %q", desc, v.DescriptionError)
		}
		blocked := name == "" || desc == "" || v.NameError != "" || v.DescriptionError != "" || began
		if v.CanSubmit == blocked {
			t.Fatalf("CanSubmit = %v, blocked = %v", v.CanSubmit, blocked)
		}
		if v.InFlight != began {
			t.Fatalf("InFlight = %v, want %v", v.InFlight, began)
		}
	})
}

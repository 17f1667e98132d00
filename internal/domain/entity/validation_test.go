package entity

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("lorem ", n))
}

func validEntry(content Content) *Entry {
	fees := ComputeFees(49)
	e := &Entry{
		ID:              NewEntryID(time.Now()),
		UserID:          "user-1",
		Category:        CategoryBusinessPlan,
		Title:           "Solar kiosks",
		Content:         content,
		PaymentIntentID: "pi_123",
		PaymentStatus:   PaymentStatusSucceeded,
	}
	e.ApplyFees(fees)
	e.ApplyDefaults()
	return e
}

func inlineFile() *FileRef {
	return &FileRef{
		Filename: "deck.pdf",
		MimeType: "application/pdf",
		Size:     4,
		Data:     []byte("%PDF"),
		URL:      "/files/pi_123",
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "valid https URL", url: "https://example.com/deck", wantErr: false},
		{name: "valid http URL", url: "http://example.com/deck", wantErr: false},
		{name: "empty URL", url: "", wantErr: true},
		{name: "invalid scheme - ftp", url: "ftp://example.com/deck", wantErr: true},
		{name: "invalid scheme - javascript", url: "javascript:alert(1)", wantErr: true},
		{name: "missing host", url: "https:///path", wantErr: true},
		{name: "too long", url: "https://example.com/" + strings.Repeat("a", maxURLLength), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL("pitchDeckUrl", tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if err != nil {
				var vErr *ValidationError
				if !errors.As(err, &vErr) || vErr.Field != "pitchDeckUrl" {
					t.Errorf("expected ValidationError on pitchDeckUrl, got %v", err)
				}
			}
		})
	}
}

func TestWordCount(t *testing.T) {
	assert.Equal(t, 0, WordCount(""))
	assert.Equal(t, 0, WordCount("   \n\t "))
	assert.Equal(t, 3, WordCount("  one\ttwo\n\nthree  "))
}

func TestEntryValidate_TextWordBounds(t *testing.T) {
	tests := []struct {
		words   int
		wantErr bool
	}{
		{words: 99, wantErr: true},
		{words: 100, wantErr: false},
		{words: 2000, wantErr: false},
		{words: 2001, wantErr: true},
	}

	for _, tt := range tests {
		e := validEntry(&TextContent{Body: words(tt.words)})
		err := e.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("words=%d: Validate() error = %v, wantErr %v", tt.words, err, tt.wantErr)
		}
		if err != nil {
			assert.Contains(t, FieldMessages(err), "textContent")
		}
	}
}

func TestEntryValidate_PitchDeck(t *testing.T) {
	t.Run("no file and no URL", func(t *testing.T) {
		err := validEntry(&DeckContent{}).Validate()
		require.Error(t, err)
		assert.Contains(t, FieldMessages(err), "pitchDeck")
	})

	t.Run("inline file", func(t *testing.T) {
		assert.NoError(t, validEntry(&DeckContent{File: inlineFile()}).Validate())
	})

	t.Run("external file", func(t *testing.T) {
		file := &FileRef{
			Filename:   "deck.pptx",
			MimeType:   "application/vnd.ms-powerpoint",
			Size:       10,
			StorageKey: "decks/ent_123.pptx",
			URL:        "/files/pi_123",
		}
		assert.NoError(t, validEntry(&DeckContent{File: file}).Validate())
	})

	t.Run("URL only", func(t *testing.T) {
		assert.NoError(t, validEntry(&DeckContent{URL: "https://slides.example.com/d/1"}).Validate())
	})

	t.Run("file without retrievable content", func(t *testing.T) {
		err := validEntry(&DeckContent{File: &FileRef{Filename: "deck.pdf", URL: "/files/pi_123"}}).Validate()
		require.Error(t, err)
		assert.Contains(t, FieldMessages(err), "file")
	})

	t.Run("bad URL", func(t *testing.T) {
		err := validEntry(&DeckContent{URL: "ftp://slides"}).Validate()
		require.Error(t, err)
		assert.Contains(t, FieldMessages(err), "pitchDeckUrl")
	})
}

func TestEntryValidate_Video(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "youtube watch", url: "https://www.youtube.com/watch?v=abc123", wantErr: false},
		{name: "youtube short link", url: "https://youtu.be/abc123", wantErr: false},
		{name: "youtube shorts", url: "https://youtube.com/shorts/abc123", wantErr: false},
		{name: "vimeo", url: "https://vimeo.com/123456", wantErr: false},
		{name: "loom", url: "https://www.loom.com/share/abc", wantErr: false},
		{name: "mixed case host", url: "HTTPS://WWW.YOUTUBE.COM/watch?v=abc", wantErr: false},
		{name: "missing", url: "", wantErr: true},
		{name: "unknown host", url: "https://example.com/video.mp4", wantErr: true},
		{name: "lookalike host", url: "https://youtube.com.evil.io/watch?v=1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validEntry(&VideoContent{URL: tt.url}).Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				assert.Contains(t, FieldMessages(err), "videoUrl")
			}
		})
	}
}

func TestEntryValidate_CommonFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(e *Entry)
		field  string
	}{
		{name: "missing owner", mutate: func(e *Entry) { e.UserID = "" }, field: "userId"},
		{name: "missing category", mutate: func(e *Entry) { e.Category = "" }, field: "category"},
		{name: "missing intent", mutate: func(e *Entry) { e.PaymentIntentID = " " }, field: "paymentIntentId"},
		{name: "short title", mutate: func(e *Entry) { e.Title = "abcd" }, field: "title"},
		{name: "long title", mutate: func(e *Entry) { e.Title = strings.Repeat("t", 101) }, field: "title"},
		{name: "long description", mutate: func(e *Entry) { e.Description = strings.Repeat("d", 1001) }, field: "description"},
		{name: "total mismatch", mutate: func(e *Entry) { e.TotalAmount++ }, field: "totalAmount"},
		{name: "unknown payment status", mutate: func(e *Entry) { e.PaymentStatus = "refunded" }, field: "paymentStatus"},
		{name: "unknown review status", mutate: func(e *Entry) { e.ReviewStatus = "shortlisted" }, field: "reviewStatus"},
		{name: "no content", mutate: func(e *Entry) { e.Content = nil }, field: "entryType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntry(&VideoContent{URL: "https://vimeo.com/1"})
			tt.mutate(e)
			err := e.Validate()
			require.Error(t, err)
			assert.Contains(t, FieldMessages(err), tt.field)
		})
	}
}

func TestEntryValidate_ReportsEveryField(t *testing.T) {
	e := &Entry{Content: &TextContent{Body: "too short"}}
	e.ApplyDefaults()

	err := e.Validate()
	require.Error(t, err)

	var vErrs ValidationErrors
	require.True(t, errors.As(err, &vErrs))
	for _, f := range []string{"userId", "category", "paymentIntentId", "title", "textContent", "entryFee"} {
		assert.Contains(t, vErrs.Fields(), f)
	}
}

func TestApplyDefaults(t *testing.T) {
	e := &Entry{}
	e.ApplyDefaults()
	assert.Equal(t, PaymentStatusPending, e.PaymentStatus)
	assert.Equal(t, ReviewStatusSubmitted, e.ReviewStatus)

	e = &Entry{PaymentStatus: PaymentStatusSucceeded, ReviewStatus: ReviewStatusFinalist}
	e.ApplyDefaults()
	assert.Equal(t, PaymentStatusSucceeded, e.PaymentStatus)
	assert.Equal(t, ReviewStatusFinalist, e.ReviewStatus)
}

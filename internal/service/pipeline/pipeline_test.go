package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"sticker2emoji/internal/domain"
	"sticker2emoji/internal/service/media"
)

// fakeSource serves a fixed pack and counts byte fetches.
type fakeSource struct {
	pack     *domain.Pack
	packErr  error
	fetchErr map[string]error
	fetched  []string
	onFetch  func(id string)
}

func (f *fakeSource) FetchPack(context.Context, string) (*domain.Pack, error) {
	if f.packErr != nil {
		return nil, f.packErr
	}
	return f.pack, nil
}

func (f *fakeSource) FetchBytes(_ context.Context, asset domain.AssetDescriptor) (domain.AssetDescriptor, []byte, error) {
	f.fetched = append(f.fetched, asset.ID)
	if f.onFetch != nil {
		f.onFetch(asset.ID)
	}
	if err := f.fetchErr[asset.ID]; err != nil {
		return asset, nil, err
	}
	return asset, []byte(asset.ID), nil
}

// fakeNormalizer fails for payloads starting with "bad" and tags results by
// classifying the asset like the real converter does.
type fakeNormalizer struct {
	calls int
}

func (f *fakeNormalizer) Normalize(_ context.Context, asset domain.AssetDescriptor, data []byte, seq int) (domain.NormalizedResult, error) {
	f.calls++
	if strings.HasPrefix(string(data), "bad") {
		return domain.NormalizedResult{}, domain.Mark(errors.New("corrupt payload"), domain.ErrDecode)
	}

	format := domain.FormatStatic
	if media.Classify(asset) == domain.KindNativeVideo {
		format = domain.FormatAnimated
	}

	return domain.NormalizedResult{
		Path:   fmt.Sprintf("emoji_%03d", seq),
		Emoji:  asset.EmojiOrDefault(),
		Format: format,
		Kind:   media.Classify(asset),
	}, nil
}

type recordingProgress struct {
	started, converted, skipped int
	limitReached                bool
}

func (p *recordingProgress) PackFetched(*domain.Pack, int) {}
func (p *recordingProgress) ItemStarted(int, int, domain.AssetDescriptor) { p.started++ }
func (p *recordingProgress) ItemConverted(int, domain.NormalizedResult) { p.converted++ }
func (p *recordingProgress) ItemSkipped(int, domain.AssetDescriptor, error) { p.skipped++ }
func (p *recordingProgress) LimitReached(int) { p.limitReached = true }

func packOf(ids ...string) *domain.Pack {
	p := &domain.Pack{Name: "TestPack", Title: "Test Pack"}
	for _, id := range ids {
		p.Assets = append(p.Assets, domain.AssetDescriptor{ID: id, MimeType: domain.MimeWebp, Emoji: "🙂"})
	}
	return p
}

func TestRun_ThreeStaticStickers(t *testing.T) {
	src := &fakeSource{pack: packOf("a", "b", "c")}
	o := New(src, &fakeNormalizer{}, nil)

	batch, err := o.Run(context.Background(), "TestPack", 50)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(batch.Results) != 3 || batch.Skipped != 0 {
		t.Fatalf("results=%d skipped=%d, want 3/0", len(batch.Results), batch.Skipped)
	}
	for i, r := range batch.Results {
		if r.Format != domain.FormatStatic {
			t.Errorf("result %d format = %s", i, r.Format)
		}
		if want := fmt.Sprintf("emoji_%03d", i+1); r.Path != want {
			t.Errorf("result %d path = %s, want %s (input order)", i, r.Path, want)
		}
	}
	if batch.Title != "Test Pack" {
		t.Errorf("title = %q", batch.Title)
	}
}

func TestRun_LimitStopsEarly(t *testing.T) {
	src := &fakeSource{pack: packOf("1", "2", "3", "4", "5", "6", "7", "8", "9", "10")}
	norm := &fakeNormalizer{}
	progress := &recordingProgress{}
	o := New(src, norm, progress)

	batch, err := o.Run(context.Background(), "TestPack", 5)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(batch.Results) != 5 {
		t.Errorf("results = %d, want 5", len(batch.Results))
	}
	if len(src.fetched) != 5 || norm.calls != 5 {
		t.Errorf("fetched %d and normalized %d assets, want 5 each", len(src.fetched), norm.calls)
	}
	if !progress.limitReached {
		t.Error("limit event not reported")
	}
}

func TestRun_LimitCountsOnlySuccesses(t *testing.T) {
	src := &fakeSource{pack: packOf("bad1", "ok1", "bad2", "ok2", "ok3", "ok4")}
	o := New(src, &fakeNormalizer{}, nil)

	batch, err := o.Run(context.Background(), "TestPack", 3)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(batch.Results) != 3 || batch.Skipped != 2 {
		t.Errorf("results=%d skipped=%d, want 3/2", len(batch.Results), batch.Skipped)
	}
	if got := strings.Join(src.fetched, ","); got != "bad1,ok1,bad2,ok2,ok3" {
		t.Errorf("fetched %s", got)
	}
}

func TestRun_SkipTallyMatchesMissingResults(t *testing.T) {
	tests := []struct {
		name string
		ids  []string
	}{
		{"all failing", []string{"bad1", "bad2", "bad3"}},
		{"all succeeding", []string{"a", "b", "c", "d"}},
		{"mixed", []string{"a", "bad1", "b", "bad2"}},
		{"empty", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			progress := &recordingProgress{}
			o := New(&fakeSource{pack: packOf(tt.ids...)}, &fakeNormalizer{}, progress)

			batch, err := o.Run(context.Background(), "TestPack", 50)
			if err != nil {
				t.Fatalf("Run: %v", err)
			}

			if batch.Skipped != len(tt.ids)-len(batch.Results) {
				t.Errorf("skipped=%d results=%d inputs=%d", batch.Skipped, len(batch.Results), len(tt.ids))
			}
			if len(batch.Outcomes) != len(tt.ids) {
				t.Errorf("outcomes = %d, want one per input", len(batch.Outcomes))
			}
			if progress.skipped != batch.Skipped || progress.converted != len(batch.Results) {
				t.Errorf("progress %+v disagrees with batch", progress)
			}
		})
	}
}

func TestRun_FetchBytesFailureIsItemLocal(t *testing.T) {
	src := &fakeSource{
		pack:     packOf("a", "b", "c"),
		fetchErr: map[string]error{"b": errors.New("connection reset")},
	}
	o := New(src, &fakeNormalizer{}, nil)

	batch, err := o.Run(context.Background(), "TestPack", 50)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(batch.Results) != 2 || batch.Skipped != 1 {
		t.Fatalf("results=%d skipped=%d", len(batch.Results), batch.Skipped)
	}
	failed := batch.Outcomes[1]
	if failed.Result != nil || !errors.Is(failed.Err, domain.ErrFetch) {
		t.Errorf("outcome %+v should be a fetch failure", failed)
	}
	if domain.FailureKind(failed.Err) != "fetch" {
		t.Errorf("kind = %s", domain.FailureKind(failed.Err))
	}
}

func TestRun_PackFetchFailureIsFatal(t *testing.T) {
	src := &fakeSource{packErr: errors.New("STICKERSET_INVALID")}
	o := New(src, &fakeNormalizer{}, nil)

	batch, err := o.Run(context.Background(), "missing", 50)
	if batch != nil || !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("batch=%v err=%v, want fatal ErrFetch", batch, err)
	}
}

func TestRun_InvalidLimit(t *testing.T) {
	o := New(&fakeSource{pack: packOf("a")}, &fakeNormalizer{}, nil)

	if _, err := o.Run(context.Background(), "TestPack", 0); err == nil {
		t.Fatal("expected error for zero limit")
	}
}

func TestRun_CancellationAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src := &fakeSource{pack: packOf("a", "b", "c", "d")}
	src.onFetch = func(id string) {
		if id == "b" {
			cancel()
		}
	}
	o := New(src, &fakeNormalizer{}, nil)

	batch, err := o.Run(ctx, "TestPack", 50)
	if !errors.Is(err, context.Canceled) || batch != nil {
		t.Fatalf("batch=%v err=%v, want cancellation", batch, err)
	}
	if len(src.fetched) > 2 {
		t.Errorf("fetched %v after cancellation", src.fetched)
	}
}

func TestRun_NativeVideoTaggedAnimated(t *testing.T) {
	pack := &domain.Pack{Title: "Mixed", Assets: []domain.AssetDescriptor{
		{ID: "v", MimeType: domain.MimeWebm},
		{ID: "s", MimeType: domain.MimeWebp},
	}}
	o := New(&fakeSource{pack: pack}, &fakeNormalizer{}, nil)

	batch, err := o.Run(context.Background(), "Mixed", 50)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if batch.Results[0].Format != domain.FormatAnimated || batch.Results[1].Format != domain.FormatStatic {
		t.Errorf("formats = %s, %s", batch.Results[0].Format, batch.Results[1].Format)
	}
	if batch.Results[0].Emoji != domain.DefaultEmoji {
		t.Errorf("emoji = %q, want default", batch.Results[0].Emoji)
	}
}

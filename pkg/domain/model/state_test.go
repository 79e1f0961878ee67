package model_test

import (
	"testing"

	"github.com/m-mizutani/gt"

	"github.com/apocacache/zimsync/pkg/domain/model"
)

func TestSyncState_Transition(t *testing.T) {
	tests := []struct {
		name string
		from model.SyncStatus
		to   model.SyncStatus
		ok   bool
	}{
		{name: "discovered to downloading", from: model.StatusDiscovered, to: model.StatusDownloading, ok: true},
		{name: "downloading to verifying", from: model.StatusDownloading, to: model.StatusVerifying, ok: true},
		{name: "downloading to failed", from: model.StatusDownloading, to: model.StatusFailed, ok: true},
		{name: "verifying to complete", from: model.StatusVerifying, to: model.StatusComplete, ok: true},
		{name: "verifying to failed", from: model.StatusVerifying, to: model.StatusFailed, ok: true},
		{name: "verifying back to downloading", from: model.StatusVerifying, to: model.StatusDownloading, ok: true},
		{name: "complete re-enters downloading", from: model.StatusComplete, to: model.StatusDownloading, ok: true},
		{name: "failed re-enters downloading", from: model.StatusFailed, to: model.StatusDownloading, ok: true},
		{name: "discovered cannot skip to complete", from: model.StatusDiscovered, to: model.StatusComplete, ok: false},
		{name: "downloading cannot skip to complete", from: model.StatusDownloading, to: model.StatusComplete, ok: false},
		{name: "complete cannot go to failed", from: model.StatusComplete, to: model.StatusFailed, ok: false},
		{name: "failed cannot go to complete", from: model.StatusFailed, to: model.StatusComplete, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &model.SyncState{Name: "wikipedia_en_all", Status: tt.from}
			err := st.Transition(tt.to)
			if tt.ok {
				gt.NoError(t, err)
				gt.Value(t, st.Status).Equal(tt.to)
			} else {
				gt.Error(t, err)
				gt.Value(t, st.Status).Equal(tt.from)
			}
		})
	}
}

func TestNewSyncState(t *testing.T) {
	st := model.NewSyncState("wiktionary_fr_all")
	gt.Value(t, st.Status).Equal(model.StatusDiscovered)
	gt.Value(t, st.Name).Equal("wiktionary_fr_all")
	gt.Number(t, st.AttemptCount).Equal(0)
}

func TestSyncState_Clone(t *testing.T) {
	st := model.NewSyncState("a")
	st.SizeBytes = 42

	c := st.Clone()
	c.SizeBytes = 7
	gt.Number(t, st.SizeBytes).Equal(int64(42))
}

func TestSyncState_HashVerified(t *testing.T) {
	st := &model.SyncState{
		Status:      model.StatusComplete,
		ContentHash: model.ContentHash{Algo: model.HashSHA256, Digest: "abc"},
	}
	gt.True(t, st.HashVerified())

	// Size-only completions keep an empty hash by design
	st.ContentHash = model.ContentHash{}
	gt.False(t, st.HashVerified())

	st.Status = model.StatusFailed
	st.ContentHash = model.ContentHash{Algo: model.HashSHA256, Digest: "abc"}
	gt.False(t, st.HashVerified())
}

func TestParseHashAlgo(t *testing.T) {
	algo, ok := model.ParseHashAlgo("sha-256")
	gt.True(t, ok)
	gt.Value(t, algo).Equal(model.HashSHA256)

	algo, ok = model.ParseHashAlgo("SHA256")
	gt.True(t, ok)
	gt.Value(t, algo).Equal(model.HashSHA256)

	_, ok = model.ParseHashAlgo("crc32")
	gt.False(t, ok)
}

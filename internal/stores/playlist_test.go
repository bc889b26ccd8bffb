package stores

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/melodymix/melodyctl/internal/api"
	"github.com/melodymix/melodyctl/internal/models"
	"github.com/melodymix/melodyctl/internal/shared"
	tu "github.com/melodymix/melodyctl/internal/testing"
)

func newStoreClient(fn tu.RoundTripFunc) *api.Client {
	return api.NewClient(api.ClientOpts{
		BaseURL:    "http://localhost:8080",
		HTTPClient: &http.Client{Transport: fn},
	})
}

func TestPlaylistStore(t *testing.T) {
	ctx := context.Background()
	summaries := []models.PlaylistSummary{
		{ID: 1, Name: "Morning Mix", SongCount: 3},
		{ID: 2, Name: "Focus", SongCount: 8},
	}

	t.Run("FetchMine", func(t *testing.T) {
		t.Run("fresh cache skips the network", func(t *testing.T) {
			calls := 0
			notifier := &tu.RecordingNotifier{}
			store := NewPlaylistStore(PlaylistStoreOpts{
				API: newStoreClient(func(req *http.Request) (*http.Response, error) {
					calls++
					return tu.JSONResponse(t, 200, summaries), nil
				}),
				Notifier: notifier,
			})

			if _, err := store.FetchMine(ctx, false); err != nil {
				t.Fatalf("first fetch failed: %v", err)
			}
			got, err := store.FetchMine(ctx, false)
			if err != nil {
				t.Fatalf("second fetch failed: %v", err)
			}

			if calls != 1 {
				t.Errorf("expected one network call, got %d", calls)
			}
			if len(got) != 2 {
				t.Errorf("expected cached summaries, got %d", len(got))
			}
		})

		t.Run("force bypasses the cache", func(t *testing.T) {
			calls := 0
			store := NewPlaylistStore(PlaylistStoreOpts{
				API: newStoreClient(func(req *http.Request) (*http.Response, error) {
					calls++
					return tu.JSONResponse(t, 200, summaries), nil
				}),
				Notifier: &tu.RecordingNotifier{},
			})

			store.FetchMine(ctx, false)
			store.FetchMine(ctx, true)

			if calls != 2 {
				t.Errorf("expected two network calls, got %d", calls)
			}
		})

		t.Run("stale cache refetches", func(t *testing.T) {
			calls := 0
			store := NewPlaylistStore(PlaylistStoreOpts{
				API: newStoreClient(func(req *http.Request) (*http.Response, error) {
					calls++
					return tu.JSONResponse(t, 200, summaries), nil
				}),
				Notifier: &tu.RecordingNotifier{},
				TTL:      10 * time.Millisecond,
			})

			store.FetchMine(ctx, false)
			time.Sleep(20 * time.Millisecond)
			store.FetchMine(ctx, false)

			if calls != 2 {
				t.Errorf("expected refetch after TTL, got %d calls", calls)
			}
		})

		t.Run("empty collection still counts as fetched", func(t *testing.T) {
			calls := 0
			store := NewPlaylistStore(PlaylistStoreOpts{
				API: newStoreClient(func(req *http.Request) (*http.Response, error) {
					calls++
					return tu.JSONResponse(t, 200, []models.PlaylistSummary{}), nil
				}),
				Notifier: &tu.RecordingNotifier{},
			})

			store.FetchMine(ctx, false)
			store.FetchMine(ctx, false)

			if calls != 1 {
				t.Errorf("expected empty result to be cached, got %d calls", calls)
			}
		})

		t.Run("failure notifies and errors", func(t *testing.T) {
			notifier := &tu.RecordingNotifier{}
			store := NewPlaylistStore(PlaylistStoreOpts{
				API: newStoreClient(func(req *http.Request) (*http.Response, error) {
					return tu.JSONResponse(t, 500, map[string]string{"message": "boom"}), nil
				}),
				Notifier: notifier,
			})

			if _, err := store.FetchMine(ctx, false); err == nil {
				t.Fatal("expected error")
			}
			if len(notifier.Errors) != 1 || notifier.Errors[0] != "boom" {
				t.Errorf("expected server message notice, got %v", notifier.Errors)
			}
		})
	})

	t.Run("FetchDetail missing playlist", func(t *testing.T) {
		notifier := &tu.RecordingNotifier{}
		store := NewPlaylistStore(PlaylistStoreOpts{
			API: newStoreClient(func(req *http.Request) (*http.Response, error) {
				return tu.JSONResponse(t, 404, map[string]string{"message": "Playlist not found"}), nil
			}),
			Notifier: notifier,
		})

		_, err := store.FetchDetail(ctx, 9)
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Fatalf("expected ErrPlaylistNotFound, got %v", err)
		}
		if len(notifier.Errors) != 1 || notifier.Errors[0] != "Playlist not found" {
			t.Errorf("expected server-message notice, got %v", notifier.Errors)
		}
	})

	t.Run("Create refetches summaries", func(t *testing.T) {
		var paths []string
		notifier := &tu.RecordingNotifier{}
		store := NewPlaylistStore(PlaylistStoreOpts{
			API: newStoreClient(func(req *http.Request) (*http.Response, error) {
				paths = append(paths, req.Method+" "+req.URL.Path)
				if req.Method == http.MethodPost {
					return tu.JSONResponse(t, 200, models.PlaylistDetail{ID: 3, Name: "New"}), nil
				}
				return tu.JSONResponse(t, 200, summaries), nil
			}),
			Notifier: notifier,
		})

		created, err := store.Create(ctx, "New", "fresh cuts")
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created.ID != 3 {
			t.Errorf("unexpected created playlist: %+v", created)
		}
		if len(paths) != 2 || paths[1] != "GET /api/playlists/my" {
			t.Errorf("expected create then summary refetch, got %v", paths)
		}
		if len(notifier.Successes) != 1 {
			t.Errorf("expected success notice, got %v", notifier.Successes)
		}
	})

	t.Run("Update patches a loaded detail", func(t *testing.T) {
		detail := models.PlaylistDetail{ID: 1, Name: "Morning Mix", Description: "old"}
		store := NewPlaylistStore(PlaylistStoreOpts{
			API: newStoreClient(func(req *http.Request) (*http.Response, error) {
				switch req.Method {
				case http.MethodGet:
					if req.URL.Path == "/api/playlists/1" {
						return tu.JSONResponse(t, 200, detail), nil
					}
					return tu.JSONResponse(t, 200, summaries), nil
				case http.MethodPut:
					return tu.JSONResponse(t, 200, models.PlaylistDetail{ID: 1, Name: "Dawn Mix", Description: "new"}), nil
				}
				return tu.JSONResponse(t, 404, nil), nil
			}),
			Notifier: &tu.RecordingNotifier{},
		})

		if _, err := store.FetchDetail(ctx, 1); err != nil {
			t.Fatalf("FetchDetail failed: %v", err)
		}
		if _, err := store.Update(ctx, 1, "Dawn Mix", "new"); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		patched := store.Detail()
		if patched == nil || patched.Name != "Dawn Mix" || patched.Description != "new" {
			t.Errorf("expected patched detail, got %+v", patched)
		}
	})

	t.Run("Delete clears a matching detail", func(t *testing.T) {
		store := NewPlaylistStore(PlaylistStoreOpts{
			API: newStoreClient(func(req *http.Request) (*http.Response, error) {
				switch {
				case req.Method == http.MethodGet && req.URL.Path == "/api/playlists/1":
					return tu.JSONResponse(t, 200, models.PlaylistDetail{ID: 1, Name: "Morning Mix"}), nil
				case req.Method == http.MethodDelete:
					return tu.JSONResponse(t, 200, nil), nil
				}
				return tu.JSONResponse(t, 200, summaries), nil
			}),
			Notifier: &tu.RecordingNotifier{},
		})

		store.FetchDetail(ctx, 1)
		if err := store.Delete(ctx, 1); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}

		if store.Detail() != nil {
			t.Error("expected cleared detail after delete")
		}
	})

	t.Run("AddSong", func(t *testing.T) {
		t.Run("success refreshes state", func(t *testing.T) {
			notifier := &tu.RecordingNotifier{}
			store := NewPlaylistStore(PlaylistStoreOpts{
				API: newStoreClient(func(req *http.Request) (*http.Response, error) {
					if req.Method == http.MethodPost {
						return tu.JSONResponse(t, 200, nil), nil
					}
					return tu.JSONResponse(t, 200, summaries), nil
				}),
				Notifier: notifier,
			})

			if !store.AddSong(ctx, 1, 42) {
				t.Error("expected success")
			}
			if len(notifier.Successes) != 1 {
				t.Errorf("expected success notice, got %v", notifier.Successes)
			}
		})

		t.Run("failure reports and returns false", func(t *testing.T) {
			notifier := &tu.RecordingNotifier{}
			store := NewPlaylistStore(PlaylistStoreOpts{
				API: newStoreClient(func(req *http.Request) (*http.Response, error) {
					return tu.JSONResponse(t, 404, map[string]string{"message": "Song not found"}), nil
				}),
				Notifier: notifier,
			})

			if store.AddSong(ctx, 1, 42) {
				t.Error("expected failure")
			}
			if len(notifier.Errors) != 1 || notifier.Errors[0] != "Song not found" {
				t.Errorf("expected server message notice, got %v", notifier.Errors)
			}
		})
	})
}

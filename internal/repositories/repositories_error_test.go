package repositories

import (
	"errors"
	"testing"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
)

func TestRecentRoomRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			repo := NewRecentRoomRepository(setupTestDB(t))
			entry := models.NewRecentRoom(0, models.Room{ID: "r1"}, models.RoleJoined)

			if err := repo.Create(entry); !errors.Is(err, shared.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput for missing code, got %v", err)
			}
		})

		t.Run("InvalidRole", func(t *testing.T) {
			repo := NewRecentRoomRepository(setupTestDB(t))
			entry := models.NewRecentRoom(0, models.Room{ID: "r1", Code: "AB12"}, models.RoomRole("owner"))

			if err := repo.Create(entry); err == nil {
				t.Fatal("expected error for invalid role")
			}
		})

		t.Run("DuplicateRoomID", func(t *testing.T) {
			repo := NewRecentRoomRepository(setupTestDB(t))
			room := models.Room{ID: "r1", Code: "AB12"}

			if err := repo.Create(models.NewRecentRoom(0, room, models.RoleJoined)); err != nil {
				t.Fatalf("failed to create first entry: %v", err)
			}
			if err := repo.Create(models.NewRecentRoom(0, room, models.RoleJoined)); err == nil {
				t.Fatal("expected error when creating duplicate room id")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))

		if _, err := repo.Get("missing"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
		if _, err := repo.GetByCode("ZZZZ"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))
		entry := models.NewRecentRoom(0, models.Room{ID: "r1", Code: "AB12"}, models.RoleJoined)
		entry.SetID("missing")

		if err := repo.Update(entry); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("DeleteTwice", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))
		entry := models.NewRecentRoom(0, models.Room{ID: "r1", Code: "AB12"}, models.RoleJoined)
		if err := repo.Create(entry); err != nil {
			t.Fatalf("failed to create entry: %v", err)
		}

		if err := repo.Delete(entry.ID()); err != nil {
			t.Fatalf("first delete: %v", err)
		}
		if err := repo.Delete(entry.ID()); err == nil {
			t.Fatal("expected error deleting an already deleted entry")
		}
	})

	t.Run("ClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewRecentRoomRepository(db)
		db.Close()

		if _, err := repo.List(nil); err == nil {
			t.Error("expected error listing from a closed database")
		}
		if _, err := repo.Record(models.Room{ID: "r1", Code: "AB12"}, models.RoleJoined); err == nil {
			t.Error("expected error recording into a closed database")
		}
	})
}

func TestTrackRepositoryErrors(t *testing.T) {
	t.Run("CreateValidation", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		if err := repo.Create(models.NewCachedTrack(0, models.Track{ID: "t1"})); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for missing name, got %v", err)
		}
		if err := repo.Create(models.NewCachedTrack(0, models.Track{Name: "No URI"})); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput for missing uri, got %v", err)
		}
	})

	t.Run("DuplicateURI", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		if err := repo.Create(models.NewCachedTrack(0, testTrack("t1", "Song", "Band"))); err != nil {
			t.Fatalf("failed to create first track: %v", err)
		}
		if err := repo.Create(models.NewCachedTrack(0, testTrack("t1", "Song", "Band"))); err == nil {
			t.Fatal("expected error for duplicate uri")
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		if _, err := repo.GetByURI("spotify:track:nope"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}

		missing := models.NewCachedTrack(0, testTrack("t1", "Song", "Band"))
		missing.SetID("missing")
		if err := repo.Update(missing); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound on update, got %v", err)
		}
		if err := repo.Delete("missing"); err == nil {
			t.Error("expected error deleting a missing track")
		}
	})

	t.Run("EmptySearch", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))

		if _, err := repo.Search("   ", 5); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("CacheOnClosedDatabase", func(t *testing.T) {
		db := setupTestDB(t)
		cache := NewTrackCache(NewTrackRepository(db))
		db.Close()

		if err := cache.CacheTrack(testTrack("t1", "Song", "Band")); err == nil {
			t.Error("expected error caching into a closed database")
		}
	})
}

package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/desertthunder/jamroom/internal/models"
	"github.com/desertthunder/jamroom/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func testTrack(id, name, artist string) models.Track {
	return models.Track{
		ID:         id,
		Name:       name,
		Artists:    []models.Artist{{Name: artist}},
		DurationMS: 180000,
		Album:      models.Album{Name: "Album " + name, Images: []models.Image{{URL: "https://img/" + id}}},
	}
}

func TestRecentRoomRepository(t *testing.T) {
	room := models.Room{ID: "r1", Code: "AB12", Name: "Friday", IsPrivate: true}

	t.Run("Create", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))
		entry := models.NewRecentRoom(0, room, models.RoleCreated)

		if err := repo.Create(entry); err != nil {
			t.Fatalf("failed to create recent room: %v", err)
		}
		if entry.ID() == "" {
			t.Error("ID should be set after creation")
		}
		if entry.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", entry.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))
		entry := models.NewRecentRoom(0, room, models.RoleCreated)
		if err := repo.Create(entry); err != nil {
			t.Fatalf("failed to create recent room: %v", err)
		}

		got, err := repo.Get(entry.ID())
		if err != nil {
			t.Fatalf("failed to get recent room: %v", err)
		}
		if got.Room() != room {
			t.Errorf("expected %+v, got %+v", room, got.Room())
		}
		if got.Role() != models.RoleCreated {
			t.Errorf("expected role created, got %q", got.Role())
		}
	})

	t.Run("GetByRoomIDAndCode", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))
		if err := repo.Create(models.NewRecentRoom(0, room, models.RoleJoined)); err != nil {
			t.Fatalf("failed to create recent room: %v", err)
		}

		byID, err := repo.GetByRoomID("r1")
		if err != nil {
			t.Fatalf("GetByRoomID: %v", err)
		}
		byCode, err := repo.GetByCode("AB12")
		if err != nil {
			t.Fatalf("GetByCode: %v", err)
		}
		if byID.ID() != byCode.ID() {
			t.Errorf("lookups disagree: %s vs %s", byID.ID(), byCode.ID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))
		entry := models.NewRecentRoom(0, room, models.RoleJoined)
		if err := repo.Create(entry); err != nil {
			t.Fatalf("failed to create recent room: %v", err)
		}

		later := entry.LastJoinedAt().Add(time.Hour)
		entry.SetLastJoinedAt(later)
		if err := repo.Update(entry); err != nil {
			t.Fatalf("failed to update recent room: %v", err)
		}

		got, err := repo.Get(entry.ID())
		if err != nil {
			t.Fatalf("failed to get recent room: %v", err)
		}
		if !got.LastJoinedAt().Equal(later) {
			t.Errorf("expected last joined %v, got %v", later, got.LastJoinedAt())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))
		entry := models.NewRecentRoom(0, room, models.RoleJoined)
		if err := repo.Create(entry); err != nil {
			t.Fatalf("failed to create recent room: %v", err)
		}

		if err := repo.Delete(entry.ID()); err != nil {
			t.Fatalf("failed to delete recent room: %v", err)
		}
		if _, err := repo.Get(entry.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("ListOrdersByLastJoined", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))
		base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

		for i, r := range []models.Room{
			{ID: "old", Code: "OLD1"},
			{ID: "new", Code: "NEW1"},
			{ID: "mid", Code: "MID1"},
		} {
			role := models.RoleJoined
			if r.ID == "mid" {
				role = models.RoleCreated
			}
			entry := models.NewRecentRoom(0, r, role)
			entry.SetLastJoinedAt(base.Add(time.Duration([]int{0, 2, 1}[i]) * time.Hour))
			if err := repo.Create(entry); err != nil {
				t.Fatalf("failed to create %s: %v", r.ID, err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		got := []string{}
		for _, r := range all {
			got = append(got, r.RoomID())
		}
		want := []string{"new", "mid", "old"}
		if len(got) != len(want) {
			t.Fatalf("expected %v, got %v", want, got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("expected %v, got %v", want, got)
			}
		}

		created, err := repo.List(map[string]any{"role": models.RoleCreated})
		if err != nil {
			t.Fatalf("failed to list by role: %v", err)
		}
		if len(created) != 1 || created[0].RoomID() != "mid" {
			t.Errorf("expected only mid, got %d entries", len(created))
		}

		recent, err := repo.Recent(2)
		if err != nil {
			t.Fatalf("failed to list recent: %v", err)
		}
		if len(recent) != 2 {
			t.Errorf("expected 2 recent rooms, got %d", len(recent))
		}
	})
}

func TestRecentRoomRepository_Record(t *testing.T) {
	t.Run("InsertsNewRoom", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))

		entry, err := repo.Record(models.Room{ID: "r1", Code: "AB12", Name: "Friday"}, models.RoleJoined)
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if entry.ID() == "" || entry.Role() != models.RoleJoined {
			t.Errorf("unexpected entry: id=%q role=%q", entry.ID(), entry.Role())
		}
	})

	t.Run("KeepsCreatedRoleOnRejoin", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))

		first, err := repo.Record(models.Room{ID: "r1", Code: "AB12", Name: "Friday"}, models.RoleCreated)
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		again, err := repo.Record(models.Room{ID: "r1", Code: "AB12"}, models.RoleJoined)
		if err != nil {
			t.Fatalf("Record again: %v", err)
		}

		if again.ID() != first.ID() {
			t.Errorf("expected same entry, got %s and %s", first.ID(), again.ID())
		}
		if again.Role() != models.RoleCreated {
			t.Errorf("expected created role to stick, got %q", again.Role())
		}
		if again.Name() != "Friday" {
			t.Errorf("expected name to be kept, got %q", again.Name())
		}

		all, _ := repo.List(nil)
		if len(all) != 1 {
			t.Errorf("expected 1 entry, got %d", len(all))
		}
	})

	t.Run("RestoresDeletedEntry", func(t *testing.T) {
		repo := NewRecentRoomRepository(setupTestDB(t))

		first, err := repo.Record(models.Room{ID: "r1", Code: "AB12"}, models.RoleJoined)
		if err != nil {
			t.Fatalf("Record: %v", err)
		}
		if err := repo.Delete(first.ID()); err != nil {
			t.Fatalf("Delete: %v", err)
		}

		restored, err := repo.Record(models.Room{ID: "r1", Code: "AB12"}, models.RoleJoined)
		if err != nil {
			t.Fatalf("Record after delete: %v", err)
		}
		if restored.ID() != first.ID() {
			t.Errorf("expected restored entry %s, got %s", first.ID(), restored.ID())
		}
		if _, err := repo.GetByRoomID("r1"); err != nil {
			t.Errorf("expected entry to be visible again: %v", err)
		}
	})
}

func TestTrackRepository(t *testing.T) {
	t.Run("CreateAndGetByURI", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewCachedTrack(0, testTrack("t1", "Song", "Band"))

		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		got, err := repo.GetByURI("spotify:track:t1")
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.ID() != track.ID() {
			t.Errorf("expected ID %s, got %s", track.ID(), got.ID())
		}

		rebuilt := got.Track()
		if rebuilt.PrimaryArtist() != "Band" || rebuilt.ArtworkURL() != "https://img/t1" || rebuilt.DurationMS != 180000 {
			t.Errorf("unexpected rebuilt track: %+v", rebuilt)
		}
	})

	t.Run("Update", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewCachedTrack(0, testTrack("t1", "Song", "Band"))
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		renamed := models.NewCachedTrack(track.Sequence(), testTrack("t1", "Song (Live)", "Band"))
		renamed.SetID(track.ID())
		if err := repo.Update(renamed); err != nil {
			t.Fatalf("failed to update track: %v", err)
		}

		got, err := repo.Get(track.ID())
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.Name() != "Song (Live)" {
			t.Errorf("expected updated name, got %q", got.Name())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		track := models.NewCachedTrack(0, testTrack("t1", "Song", "Band"))
		if err := repo.Create(track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}

		if err := repo.Delete(track.ID()); err != nil {
			t.Fatalf("failed to delete track: %v", err)
		}
		if _, err := repo.Get(track.ID()); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound after delete, got %v", err)
		}
	})

	t.Run("ListAndSearch", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		for _, tr := range []models.Track{
			testTrack("t1", "Blue Monday", "New Order"),
			testTrack("t2", "Ceremony", "New Order"),
			testTrack("t3", "Monday Morning", "Fleetwood Mac"),
		} {
			if err := repo.Create(models.NewCachedTrack(0, tr)); err != nil {
				t.Fatalf("failed to create %s: %v", tr.ID, err)
			}
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 3 || all[0].TrackID() != "t3" {
			t.Errorf("expected newest first, got %d tracks", len(all))
		}

		byArtist, err := repo.List(map[string]any{"artist": "new order"})
		if err != nil {
			t.Fatalf("failed to list by artist: %v", err)
		}
		if len(byArtist) != 2 {
			t.Errorf("expected 2 tracks by artist, got %d", len(byArtist))
		}

		found, err := repo.Search("monday", 10)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(found) != 2 {
			t.Errorf("expected 2 matches, got %d", len(found))
		}

		fleetwood, err := repo.Search("fleetwood", 0)
		if err != nil {
			t.Fatalf("failed to search: %v", err)
		}
		if len(fleetwood) != 1 || fleetwood[0].TrackID() != "t3" {
			t.Errorf("expected artist match t3, got %d results", len(fleetwood))
		}
	})
}

func TestTrackCache(t *testing.T) {
	t.Run("CachesOncePerURI", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		cache := NewTrackCache(repo)

		if err := cache.CacheTrack(testTrack("t1", "Song", "Band")); err != nil {
			t.Fatalf("first cache: %v", err)
		}
		if err := cache.CacheTrack(testTrack("t1", "Song (Remastered)", "Band")); err != nil {
			t.Fatalf("second cache: %v", err)
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list: %v", err)
		}
		if len(all) != 1 {
			t.Fatalf("expected 1 cached track, got %d", len(all))
		}
		if all[0].Name() != "Song (Remastered)" {
			t.Errorf("expected refreshed name, got %q", all[0].Name())
		}
	})

	t.Run("IgnoresTracksWithoutURI", func(t *testing.T) {
		repo := NewTrackRepository(setupTestDB(t))
		cache := NewTrackCache(repo)

		if err := cache.CacheTrack(models.Track{Name: "Local file"}); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		all, _ := repo.List(nil)
		if len(all) != 0 {
			t.Errorf("expected nothing cached, got %d", len(all))
		}
	})

	t.Run("Lookup", func(t *testing.T) {
		cache := NewTrackCache(NewTrackRepository(setupTestDB(t)))
		if err := cache.CacheTrack(testTrack("t1", "Song", "Band")); err != nil {
			t.Fatalf("cache: %v", err)
		}

		track, err := cache.Lookup("spotify:track:t1")
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if track.Name != "Song" {
			t.Errorf("expected Song, got %q", track.Name)
		}

		if _, err := cache.Lookup("spotify:track:missing"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "recent_rooms")
		if err != nil {
			t.Fatalf("NextSequence: %v", err)
		}
		if got != want {
			t.Errorf("expected %d, got %d", want, got)
		}
	}

	other, err := NextSequence(db, "cached_tracks")
	if err != nil {
		t.Fatalf("NextSequence: %v", err)
	}
	if other != 1 {
		t.Errorf("sequences should be per table, got %d", other)
	}
}

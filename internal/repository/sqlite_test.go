package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mr1hm/go-seismic-sources/internal/mfd"
	"github.com/mr1hm/go-seismic-sources/internal/models"
)

func setupTestDB(t *testing.T) *SQLiteDB {
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	return db
}

func testCatalog() *models.Catalog {
	dist := mfd.New(5.0, 0.1, []float64{0.004, 0.002, 0.001})
	cat := models.NewCatalog()
	cat.Append(&models.AreaSource{
		SourceBase: models.SourceBase{Label: models.SourceLabel{Kind: models.KindArea, Code: "D", Number: 1, ID: "7.RU.D.1"}},
		Polygon: []models.Location{
			{Latitude: 43.0, Longitude: 45.0},
			{Latitude: 44.0, Longitude: 46.0},
			{Latitude: 43.0, Longitude: 46.5},
		},
		MFDs: []models.FocalMechMFD{
			{Mechanism: models.FocalMechanism{Strike: 30, Dip: 60, Rake: -90}, MFD: dist},
			{Mechanism: models.FocalMechanism{Strike: 30, Dip: 45, Rake: -90}, MFD: dist},
		},
		AveHypoDepth: 5,
	})
	cat.Append(&models.FaultSource{
		SourceBase: models.SourceBase{Label: models.SourceLabel{Kind: models.KindFault, Code: "L", Number: 2, ID: "7.RU.L.2"}},
		Trace: []models.Location{
			{Latitude: 41.0, Longitude: 45.0, Depth: 10},
			{Latitude: 40.0, Longitude: 44.0, Depth: 10},
		},
		MFD:        mfd.New(6.0, 0.1, []float64{0.001, 0.0005}),
		Dip:        80,
		Rake:       -90,
		UpperDepth: 10,
		LowerDepth: 25,
	})
	return cat
}

func saveTestRun(t *testing.T, db *SQLiteDB, id string, created time.Time) {
	t.Helper()
	run := &models.Run{ID: id, Name: id + ".txt", Strategy: "gr", Records: 12, Compiled: 2, CreatedAt: created}
	if err := db.SaveRun(context.Background(), run, testCatalog()); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
}

func TestSQLiteDB_SaveAndGetRun(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	saveTestRun(t, db, "run-1", time.Now().UTC())

	got, err := db.GetRun(ctx, "run-1")
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Name != "run-1.txt" || got.Compiled != 2 || got.Records != 12 {
		t.Errorf("unexpected run: %+v", got)
	}

	_, err = db.GetRun(ctx, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteDB_ListRunsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	saveTestRun(t, db, "old", base)
	saveTestRun(t, db, "new", base.Add(time.Hour))

	runs, err := db.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != "new" {
		t.Errorf("expected newest run first, got %s", runs[0].ID)
	}
}

func TestSQLiteDB_DuplicateRunRollsBack(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	saveTestRun(t, db, "dup", time.Now().UTC())
	err := db.SaveRun(context.Background(), &models.Run{ID: "dup", CreatedAt: time.Now()}, testCatalog())
	if err == nil {
		t.Fatal("expected duplicate run id to fail")
	}

	sources, err := db.ListSources(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}
	if len(sources) != 2 {
		t.Errorf("expected 2 sources after rollback, got %d", len(sources))
	}
}

func TestSQLiteDB_ListSources(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	saveTestRun(t, db, "run-a", time.Now().UTC())
	saveTestRun(t, db, "run-b", time.Now().UTC())

	all, err := db.ListSources(ctx, Filter{})
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 sources, got %d", len(all))
	}

	fault := models.KindFault
	faults, err := db.ListSources(ctx, Filter{RunID: "run-b", Kind: &fault})
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}
	if len(faults) != 1 {
		t.Fatalf("expected 1 fault, got %d", len(faults))
	}
	f := faults[0]
	if f.Label != "7.RU.L.2" || f.Dip != 80 || f.LowerDepth != 25 {
		t.Errorf("unexpected fault: %+v", f)
	}
	if len(f.Vertices) != 2 || f.Vertices[0].Latitude != 41.0 {
		t.Errorf("expected trace in stored order, got %+v", f.Vertices)
	}

	minMax := 6.0
	strong, err := db.ListSources(ctx, Filter{MinMaxMagnitude: &minMax})
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}
	if len(strong) != 2 {
		t.Errorf("expected 2 sources with mmax >= 6.0, got %d", len(strong))
	}

	page, err := db.ListSources(ctx, Filter{Limit: 1, Offset: 1})
	if err != nil {
		t.Fatalf("ListSources failed: %v", err)
	}
	if len(page) != 1 || page[0].Label != "7.RU.L.2" {
		t.Errorf("unexpected page: %+v", page)
	}
}

func TestSQLiteDB_GetMFDs(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	saveTestRun(t, db, "run-1", time.Now().UTC())

	area := models.KindArea
	sources, err := db.ListSources(ctx, Filter{Kind: &area})
	if err != nil || len(sources) != 1 {
		t.Fatalf("ListSources: %v (%d)", err, len(sources))
	}

	dists, err := db.GetMFDs(ctx, sources[0].ID)
	if err != nil {
		t.Fatalf("GetMFDs failed: %v", err)
	}
	if len(dists) != 2 {
		t.Fatalf("expected 2 mechanisms, got %d", len(dists))
	}
	if dists[1].Mechanism.Dip != 45 {
		t.Errorf("expected second mechanism dip 45, got %v", dists[1].Mechanism.Dip)
	}
	d := dists[0].Dist()
	if d.Num() != 3 || d.Y(1) != 0.002 || d.Anchor() != 5.0 {
		t.Errorf("rates not restored: anchor %v rates %v", d.Anchor(), d.Rates())
	}

	_, err = db.GetMFDs(ctx, 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

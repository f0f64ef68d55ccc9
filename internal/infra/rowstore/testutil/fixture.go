// Package testutil provides a seeded SQLite copy of the SALT proposal tables,
// a recording executor, and a stub database/sql driver for rowstore tests.
package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"saltapi/internal/infra/rowstore"
)

// Now is the reference instant the seeded observing windows are arranged around.
var Now = time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)

// Seeded keys referenced by tests.
const (
	ProposalSci      = "2021-1-SCI-001" // active, blocks 5/7/8/9, visits 100-102
	ProposalDDT      = "2021-1-DDT-002" // inactive, blocks 10/11 excluded from its block set
	ProposalBadState = "2021-1-ENG-003" // carries an unrecognized proposal status
	ProposalMissing  = "2021-1-SCI-999"
)

// Schema is a SQLite rendition of the tables the loaders read.
const Schema = `
CREATE TABLE Semester (Semester_Id INTEGER PRIMARY KEY, Year INTEGER NOT NULL, Semester INTEGER NOT NULL);
CREATE TABLE ProposalCode (ProposalCode_Id INTEGER PRIMARY KEY, Proposal_Code TEXT NOT NULL UNIQUE);
CREATE TABLE Proposal (Proposal_Id INTEGER PRIMARY KEY, ProposalCode_Id INTEGER NOT NULL, Semester_Id INTEGER NOT NULL, Current INTEGER NOT NULL);
CREATE TABLE ProposalText (ProposalCode_Id INTEGER NOT NULL, Semester_Id INTEGER NOT NULL, Title TEXT NOT NULL);
CREATE TABLE ProposalType (ProposalType_Id INTEGER PRIMARY KEY, ProposalType TEXT NOT NULL);
CREATE TABLE ProposalStatus (ProposalStatus_Id INTEGER PRIMARY KEY, Status TEXT NOT NULL);
CREATE TABLE ProposalInactiveReason (ProposalInactiveReason_Id INTEGER PRIMARY KEY, InactiveReason TEXT NOT NULL);
CREATE TABLE ProposalGeneralInfo (ProposalCode_Id INTEGER PRIMARY KEY, ProposalType_Id INTEGER NOT NULL, ProposalStatus_Id INTEGER NOT NULL, StatusComment TEXT, ProposalInactiveReason_Id INTEGER);
CREATE TABLE ProposalContact (ProposalCode_Id INTEGER PRIMARY KEY, Leader_Id INTEGER NOT NULL, Contact_Id INTEGER NOT NULL, Astronomer_Id INTEGER);
CREATE TABLE Investigator (Investigator_Id INTEGER PRIMARY KEY, FirstName TEXT NOT NULL, Surname TEXT NOT NULL, Email TEXT);
CREATE TABLE Partner (Partner_Id INTEGER PRIMARY KEY, Partner_Code TEXT NOT NULL);
CREATE TABLE PartnerShareTimeDist (Partner_Id INTEGER NOT NULL, Semester_Id INTEGER NOT NULL, SharePercent REAL NOT NULL);
CREATE TABLE MultiPartner (MultiPartner_Id INTEGER PRIMARY KEY, ProposalCode_Id INTEGER NOT NULL, Partner_Id INTEGER NOT NULL, Semester_Id INTEGER NOT NULL);
CREATE TABLE PriorityAlloc (MultiPartner_Id INTEGER NOT NULL, Priority INTEGER NOT NULL, TimeAlloc INTEGER NOT NULL);
CREATE TABLE BlockCode (BlockCode_Id INTEGER PRIMARY KEY, BlockCode TEXT NOT NULL);
CREATE TABLE BlockStatus (BlockStatus_Id INTEGER PRIMARY KEY, BlockStatus TEXT NOT NULL);
CREATE TABLE Block (Block_Id INTEGER PRIMARY KEY, BlockCode_Id INTEGER NOT NULL, ProposalCode_Id INTEGER NOT NULL, Semester_Id INTEGER NOT NULL, Block_Name TEXT NOT NULL, BlockStatus_Id INTEGER NOT NULL, BlockStatusReason TEXT, ObsTime INTEGER NOT NULL, Priority INTEGER NOT NULL);
CREATE TABLE NightInfo (NightInfo_Id INTEGER PRIMARY KEY, Date DATE NOT NULL);
CREATE TABLE BlockVisitStatus (BlockVisitStatus_Id INTEGER PRIMARY KEY, BlockVisitStatus TEXT NOT NULL);
CREATE TABLE BlockRejectedReason (BlockRejectedReason_Id INTEGER PRIMARY KEY, RejectedReason TEXT NOT NULL);
CREATE TABLE BlockVisit (BlockVisit_Id INTEGER PRIMARY KEY, Block_Id INTEGER NOT NULL, NightInfo_Id INTEGER NOT NULL, BlockVisitStatus_Id INTEGER NOT NULL, BlockRejectedReason_Id INTEGER);
CREATE TABLE FileData (FileData_Id INTEGER PRIMARY KEY, BlockVisit_Id INTEGER, UTStart DATETIME NOT NULL);
CREATE TABLE BlockVisibilityWindowType (BlockVisibilityWindowType_Id INTEGER PRIMARY KEY, BlockVisibilityWindowType TEXT NOT NULL);
CREATE TABLE BlockVisibilityWindow (BlockVisibilityWindow_Id INTEGER PRIMARY KEY, Block_Id INTEGER NOT NULL, VisibilityStart DATETIME NOT NULL, VisibilityEnd DATETIME NOT NULL, BlockVisibilityWindowType_Id INTEGER NOT NULL);
`

// Seed populates the schema.
const Seed = `
INSERT INTO Semester VALUES (1, 2020, 2), (2, 2021, 1);
INSERT INTO ProposalCode VALUES (1, '2021-1-SCI-001'), (2, '2021-1-DDT-002'), (3, '2021-1-ENG-003');
INSERT INTO Proposal VALUES (1, 1, 1, 0), (2, 1, 2, 1), (3, 2, 2, 1), (4, 3, 2, 1);
INSERT INTO ProposalText VALUES (1, 1, 'Stellar winds (draft)'), (1, 2, 'Stellar winds'), (2, 2, 'Kilonova follow-up'), (3, 2, 'Tracker tests');
INSERT INTO ProposalType VALUES (1, 'Science'), (2, 'Director Discretionary Time (DDT)'), (3, 'Engineering');
INSERT INTO ProposalStatus VALUES (1, 'Active'), (2, 'Inactive'), (3, 'Resting');
INSERT INTO ProposalInactiveReason VALUES (1, 'Target not visible');
INSERT INTO ProposalGeneralInfo VALUES (1, 1, 1, 'Going well', NULL), (2, 2, 2, NULL, 1), (3, 3, 3, NULL, NULL);
INSERT INTO ProposalContact VALUES (1, 1, 2, 3), (2, 2, 2, NULL), (3, 1, 1, NULL);
INSERT INTO Investigator VALUES (1, 'Ada', 'Lovelace', 'ada@example.org'), (2, 'Cecilia', 'Payne', NULL), (3, 'Henrietta', 'Leavitt', 'hl@example.org');
INSERT INTO Partner VALUES (1, 'RSA'), (2, 'UKSC'), (3, 'POL');
INSERT INTO PartnerShareTimeDist VALUES (1, 1, 50.5), (1, 2, 52.0), (2, 2, 10.0);
INSERT INTO MultiPartner VALUES (1, 1, 1, 2), (2, 1, 2, 2), (3, 2, 1, 2);
INSERT INTO PriorityAlloc VALUES (1, 0, 3600), (1, 2, 7200), (2, 1, 1800), (2, 4, 0), (3, 0, 1200);
INSERT INTO BlockCode VALUES (1, 'b-orion-a'), (2, 'b-orion-b'), (3, 'b-orion-c'), (4, 'b-orion-d'), (5, 'b-kilonova'), (6, 'b-odd');
INSERT INTO BlockStatus VALUES (1, 'Active'), (2, 'Completed'), (3, 'Deleted'), (4, 'On Hold'), (5, 'Not set'), (6, 'Superseded'), (7, 'Sleeping');
INSERT INTO Block VALUES
	(5, 1, 1, 2, 'Orion A', 1, NULL, 1800, 2),
	(7, 2, 1, 2, 'Orion B', 2, NULL, 2400, 1),
	(8, 3, 1, 2, 'Orion C', 3, 'Replaced', 1200, 3),
	(9, 4, 1, 2, 'Orion D', 4, 'Weather', 1200, 2),
	(10, 5, 2, 2, 'Kilonova', 5, NULL, 900, 0),
	(11, 6, 2, 2, 'Odd', 7, NULL, 600, 4);
INSERT INTO NightInfo VALUES (1, '2021-06-13'), (2, '2021-06-14');
INSERT INTO BlockVisitStatus VALUES (1, 'Accepted'), (2, 'Rejected'), (3, 'In queue'), (4, 'Deleted');
INSERT INTO BlockRejectedReason VALUES (1, 'Seeing');
INSERT INTO BlockVisit VALUES (100, 5, 1, 1, NULL), (101, 5, 2, 2, 1), (102, 7, 2, 3, NULL);
INSERT INTO FileData VALUES (1, 100, '2021-06-13 21:10:00'), (2, 100, '2021-06-13 20:45:30'), (3, 101, '2021-06-14 22:00:00'), (4, NULL, '2021-06-14 23:00:00');
INSERT INTO BlockVisibilityWindowType VALUES (1, 'Strict'), (2, 'Extended'), (3, 'Strict+Extended');
INSERT INTO BlockVisibilityWindow VALUES
	(1, 5, '2021-06-14 22:00:00', '2021-06-14 23:30:00', 1),
	(2, 5, '2021-06-13 19:00:00', '2021-06-13 20:00:00', 1),
	(3, 5, '2021-06-16 03:00:00', '2021-06-16 04:00:00', 1),
	(4, 5, '2021-06-15 20:00:00', '2021-06-15 21:00:00', 1),
	(5, 5, '2021-06-17 20:00:00', '2021-06-17 21:00:00', 1),
	(6, 5, '2021-06-16 06:00:00', '2021-06-16 07:00:00', 1),
	(7, 5, '2021-06-15 19:00:00', '2021-06-15 19:40:00', 2),
	(8, 7, '2021-06-20 20:00:00', '2021-06-20 22:00:00', 1);
`

// OpenSQLite creates a seeded SQLite database under t.TempDir().
func OpenSQLite(t testing.TB) *rowstore.DB {
	t.Helper()
	db, err := sql.Open("sqlite", SeedFile(t))
	if err != nil {
		t.Fatalf("open seeded sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return rowstore.New(db, rowstore.DialectSQLite)
}

// SeedFile writes the seeded database to a file under t.TempDir() and returns
// its path, for callers that open the store through a DSN.
func SeedFile(t testing.TB) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sdb.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	defer func() { _ = db.Close() }()
	for _, stmt := range splitStatements(Schema + Seed) {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("fixture statement %q: %v", stmt, err)
		}
	}
	return path
}

func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}

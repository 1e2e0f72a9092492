package storage

const schema = `
-- The 'sources' table tracks the origin of imported cards, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local',
    last_scanned DATETIME
);

CREATE TABLE IF NOT EXISTS eras (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_year INTEGER NOT NULL,
    end_year INTEGER NOT NULL,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    era_id TEXT NOT NULL,
    title TEXT NOT NULL,
    summary TEXT NOT NULL DEFAULT '',
    start_year INTEGER NOT NULL,
    end_year INTEGER,
    image TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,

    FOREIGN KEY(era_id) REFERENCES eras(id)
);

CREATE TABLE IF NOT EXISTS persons (
    id TEXT PRIMARY KEY,
    era_id TEXT NOT NULL,
    name TEXT NOT NULL,
    bio TEXT NOT NULL DEFAULT '',
    born INTEGER NOT NULL,
    died INTEGER,
    image TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL,

    FOREIGN KEY(era_id) REFERENCES eras(id)
);

-- Child rows are listed by year, then by insertion order (rowid).
CREATE TABLE IF NOT EXISTS subevents (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    year INTEGER,

    FOREIGN KEY(event_id) REFERENCES events(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_subevents_event ON subevents(event_id);

CREATE TABLE IF NOT EXISTS person_achievements (
    id TEXT PRIMARY KEY,
    person_id TEXT NOT NULL,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    year INTEGER,

    FOREIGN KEY(person_id) REFERENCES persons(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_person_achievements_person ON person_achievements(person_id);

-- The 'cards' table stores flashcards and their review state.
CREATE TABLE IF NOT EXISTS cards (
    id TEXT PRIMARY KEY,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    context TEXT NOT NULL DEFAULT '',
    hash TEXT NOT NULL UNIQUE,
    status TEXT NOT NULL DEFAULT 'new', -- new, one, two, three, four, five, six
    due_at DATETIME,
    person_id TEXT,
    event_id TEXT,
    source_id INTEGER,
    created_at DATETIME NOT NULL,

    FOREIGN KEY(person_id) REFERENCES persons(id) ON DELETE SET NULL,
    FOREIGN KEY(event_id) REFERENCES events(id) ON DELETE SET NULL,
    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_cards_source ON cards(source_id);
`

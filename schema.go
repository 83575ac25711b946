package opsmem

// VectorDimensions is both the vocabulary size and the embedding width.
const VectorDimensions = 768

const schema = `
CREATE TABLE IF NOT EXISTS knowledge (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    source_id INTEGER NOT NULL DEFAULT 0,
    text TEXT NOT NULL,
    date TEXT NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS knowledge_fts USING fts5(
    text,
    content='knowledge'
);

CREATE TRIGGER IF NOT EXISTS knowledge_ai AFTER INSERT ON knowledge BEGIN
    INSERT INTO knowledge_fts(rowid, text) VALUES (new.rowid, new.text);
END;

CREATE TRIGGER IF NOT EXISTS knowledge_ad AFTER DELETE ON knowledge BEGIN
    INSERT INTO knowledge_fts(knowledge_fts, rowid, text) VALUES ('delete', old.rowid, old.text);
END;

CREATE TABLE IF NOT EXISTS vec_meta (
    rowid INTEGER PRIMARY KEY AUTOINCREMENT,
    entry_id TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS nodes (
    id TEXT PRIMARY KEY,
    node_type TEXT NOT NULL,
    label TEXT NOT NULL,
    properties TEXT,
    created_at DATETIME DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(node_type);

CREATE TABLE IF NOT EXISTS edges (
    source TEXT NOT NULL REFERENCES nodes(id),
    target TEXT NOT NULL REFERENCES nodes(id),
    relationship TEXT NOT NULL,
    weight REAL NOT NULL DEFAULT 1.0,
    created_at DATETIME DEFAULT (datetime('now')),
    PRIMARY KEY (source, target, relationship)
);

CREATE INDEX IF NOT EXISTS idx_edges_source ON edges(source);
CREATE INDEX IF NOT EXISTS idx_edges_target ON edges(target);

CREATE TABLE IF NOT EXISTS episodes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    sprint_phase TEXT NOT NULL,
    timestamp DATETIME DEFAULT (datetime('now')),
    action TEXT NOT NULL,
    outcome TEXT NOT NULL,
    lesson TEXT,
    tags TEXT
);

CREATE INDEX IF NOT EXISTS idx_episodes_phase ON episodes(sprint_phase);

CREATE VIRTUAL TABLE IF NOT EXISTS episodes_fts USING fts5(
    action,
    outcome,
    lesson,
    content='episodes',
    content_rowid='id'
);

CREATE TRIGGER IF NOT EXISTS episodes_ai AFTER INSERT ON episodes BEGIN
    INSERT INTO episodes_fts(rowid, action, outcome, lesson)
    VALUES (new.id, new.action, new.outcome, COALESCE(new.lesson, ''));
END;

CREATE TRIGGER IF NOT EXISTS episodes_ad AFTER DELETE ON episodes BEGIN
    INSERT INTO episodes_fts(episodes_fts, rowid, action, outcome, lesson)
    VALUES ('delete', old.id, old.action, old.outcome, COALESCE(old.lesson, ''));
END;

CREATE TABLE IF NOT EXISTS maintenance (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    job TEXT NOT NULL UNIQUE,
    schedule TEXT NOT NULL,
    next_run DATETIME NOT NULL,
    created_at DATETIME DEFAULT (datetime('now'))
);
`

const vecSchema = `
CREATE VIRTUAL TABLE IF NOT EXISTS vec_knowledge USING vec0(
    entry_rowid INTEGER PRIMARY KEY,
    embedding FLOAT[768]
);
`

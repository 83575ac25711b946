package opsmem

const (
	queryInsertKnowledge = `INSERT INTO knowledge (id, source, source_id, text, date) VALUES (?, ?, ?, ?, ?)`
	queryGetKnowledge    = `SELECT id, source, source_id, text, date FROM knowledge WHERE id = ?`
	queryAllKnowledge    = `SELECT id, source, source_id, text, date FROM knowledge ORDER BY rowid`
	queryDeleteKnowledge = `DELETE FROM knowledge WHERE id = ?`
	querySearchKnowledge = `SELECT k.id, k.source, k.source_id, k.text, k.date
		FROM knowledge_fts f
		JOIN knowledge k ON k.rowid = f.rowid
		WHERE knowledge_fts MATCH ?
		ORDER BY bm25(knowledge_fts)
		LIMIT ?`

	queryGetVecHandle   = `SELECT rowid FROM vec_meta WHERE entry_id = ?`
	queryInsertVecMeta  = `INSERT INTO vec_meta (entry_id) VALUES (?)`
	queryDeleteVecMeta  = `DELETE FROM vec_meta WHERE entry_id = ?`
	queryInsertVecRow   = `INSERT INTO vec_knowledge (entry_rowid, embedding) VALUES (?, ?)`
	queryDeleteVecRow   = `DELETE FROM vec_knowledge WHERE entry_rowid = ?`
	queryClearVecRows   = `DELETE FROM vec_knowledge`
	queryClearVecMeta   = `DELETE FROM vec_meta`
	queryKNN            = `SELECT entry_rowid, distance FROM vec_knowledge WHERE embedding MATCH ? AND k = ? ORDER BY distance`
	queryCountVecRows   = `SELECT COUNT(*) FROM vec_knowledge`
	queryCountVecMapped = `SELECT COUNT(*) FROM vec_meta`

	queryUpsertNode = `INSERT INTO nodes (id, node_type, label, properties) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET node_type = excluded.node_type, label = excluded.label, properties = excluded.properties`
	queryGetNode        = `SELECT id, node_type, label, properties FROM nodes WHERE id = ?`
	queryGetNodesByType = `SELECT id, node_type, label, properties FROM nodes WHERE node_type = ?`
	queryUpsertEdge     = `INSERT INTO edges (source, target, relationship, weight) VALUES (?, ?, ?, ?)
		ON CONFLICT(source, target, relationship) DO UPDATE SET weight = excluded.weight`
	queryGetOutgoing = `SELECT n.id, n.node_type, n.label, n.properties, e.relationship, e.weight
		FROM edges e JOIN nodes n ON n.id = e.target WHERE e.source = ?`
	queryGetIncoming = `SELECT n.id, n.node_type, n.label, n.properties, e.relationship, e.weight
		FROM edges e JOIN nodes n ON n.id = e.source WHERE e.target = ?`
	queryGetOutgoingIDs = `SELECT target FROM edges WHERE source = ? ORDER BY weight DESC, target`
	queryCountNodes     = `SELECT COUNT(*) FROM nodes`
	queryCountEdges     = `SELECT COUNT(*) FROM edges`
	queryNodeTypeCounts = `SELECT node_type, COUNT(*) FROM nodes GROUP BY node_type`

	queryInsertEpisode = `INSERT INTO episodes (sprint_phase, action, outcome, lesson, tags) VALUES (?, ?, ?, ?, ?)`
	queryGetEpisode    = `SELECT id, sprint_phase, timestamp, action, outcome, lesson, tags FROM episodes WHERE id = ?`
	queryRecentPrefix  = `SELECT id, sprint_phase, timestamp, action, outcome, lesson, tags FROM episodes`
	queryRecallPrefix  = `SELECT e.id, e.sprint_phase, e.timestamp, e.action, e.outcome, e.lesson, e.tags
		FROM episodes_fts f
		JOIN episodes e ON e.id = f.rowid
		WHERE episodes_fts MATCH ?`
	queryPruneEpisodes = `DELETE FROM episodes WHERE timestamp < datetime('now', ?)`

	queryUpsertMaintenance = `INSERT INTO maintenance (job, schedule, next_run) VALUES (?, ?, ?)
		ON CONFLICT(job) DO UPDATE SET schedule = excluded.schedule, next_run = excluded.next_run`
	queryDueMaintenance      = `SELECT id, job, schedule, next_run, created_at FROM maintenance WHERE next_run <= datetime('now') ORDER BY next_run`
	queryGetMaintenance      = `SELECT id, job, schedule, next_run, created_at FROM maintenance WHERE job = ?`
	queryAdvanceMaintenance  = `UPDATE maintenance SET next_run = ? WHERE id = ?`
	queryDeleteMaintenance   = `DELETE FROM maintenance WHERE job = ?`
	queryScheduleMaintenance = `SELECT schedule FROM maintenance WHERE id = ?`
)

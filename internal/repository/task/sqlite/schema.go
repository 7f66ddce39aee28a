package sqlite

// время хранится в наносекундах unix, NULL - значение не задано
var schema = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT '',
		priority_rank INTEGER NOT NULL DEFAULT 0,
		deadline INTEGER,
		scheduled_start INTEGER,
		scheduled_end INTEGER,
		energy_level_required TEXT NOT NULL DEFAULT 'Medium',
		assigned_to TEXT NOT NULL,
		team_id TEXT NOT NULL DEFAULT '',
		project_id TEXT NOT NULL DEFAULT '',
		is_private INTEGER NOT NULL DEFAULT 1,
		subtasks TEXT NOT NULL DEFAULT '[]',
		time_log TEXT NOT NULL DEFAULT '[]',
		total_time_spent INTEGER NOT NULL DEFAULT 0,
		tracked_seconds INTEGER NOT NULL DEFAULT 0,
		ai_priority_reasoning TEXT NOT NULL DEFAULT '',
		ai_estimated_duration INTEGER NOT NULL DEFAULT 0,
		ai_confidence_score INTEGER NOT NULL DEFAULT 0,
		ai_tags TEXT NOT NULL DEFAULT '[]',
		created_at INTEGER NOT NULL,
		updated_at INTEGER,
		completed_at INTEGER,
		version INTEGER NOT NULL DEFAULT 1,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		deleted_at INTEGER
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assigned_status ON tasks (assigned_to, status)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_team ON tasks (team_id)`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		teams TEXT NOT NULL DEFAULT '[]',
		work_hours_start TEXT NOT NULL DEFAULT '09:00',
		work_hours_end TEXT NOT NULL DEFAULT '17:00',
		energy_profile TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL
	)`,
}

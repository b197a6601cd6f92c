package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	adaptiveStatesTable = "adaptive_states"
	qValueEventsTable   = "q_value_events"
	stateSnapshotsTable = "state_snapshots"
	learnerXPTable      = "learner_xp"
)

var (
	// AdaptiveStatesColumns holds the columns for the "adaptive_states" table.
	AdaptiveStatesColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "topic_key", Type: field.TypeString},
		{Name: "current_tier", Type: field.TypeString},
		{Name: "consecutive_correct", Type: field.TypeInt, Default: 0},
		{Name: "consecutive_incorrect", Type: field.TypeInt, Default: 0},
		{Name: "episode", Type: field.TypeInt64, Default: 0},
		{Name: "q_values", Type: field.TypeJSON},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// AdaptiveStatesTable holds one row per learner/topic pair.
	AdaptiveStatesTable = &schema.Table{
		Name:       adaptiveStatesTable,
		Columns:    AdaptiveStatesColumns,
		PrimaryKey: []*schema.Column{AdaptiveStatesColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "adaptivestate_learner_id_topic_key",
				Unique:  true,
				Columns: []*schema.Column{AdaptiveStatesColumns[1], AdaptiveStatesColumns[2]},
			},
		},
	}

	// QValueEventsColumns holds the columns for the "q_value_events" table.
	QValueEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "event_id", Type: field.TypeString, Unique: true},
		{Name: "version", Type: field.TypeString},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "topic_key", Type: field.TypeString},
		{Name: "state_key", Type: field.TypeString},
		{Name: "action", Type: field.TypeString},
		{Name: "old_q_value", Type: field.TypeFloat64},
		{Name: "new_q_value", Type: field.TypeFloat64},
		{Name: "reward", Type: field.TypeFloat64},
		{Name: "episode", Type: field.TypeInt64},
		{Name: "timestamp", Type: field.TypeTime},
	}
	// QValueEventsTable is the append-only Q-value event log.
	QValueEventsTable = &schema.Table{
		Name:       qValueEventsTable,
		Columns:    QValueEventsColumns,
		PrimaryKey: []*schema.Column{QValueEventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "qvalueevent_learner_id_topic_key",
				Columns: []*schema.Column{QValueEventsColumns[4], QValueEventsColumns[5]},
			},
			{
				Name:    "qvalueevent_timestamp",
				Columns: []*schema.Column{QValueEventsColumns[12]},
			},
		},
	}

	// StateSnapshotsColumns holds the columns for the "state_snapshots" table.
	StateSnapshotsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64},
		{Name: "learner_id", Type: field.TypeString},
		{Name: "topic_key", Type: field.TypeString},
		{Name: "reason", Type: field.TypeString},
		{Name: "data", Type: field.TypeJSON},
		{Name: "timestamp", Type: field.TypeTime},
	}
	// StateSnapshotsTable keeps point-in-time copies of adaptive state.
	StateSnapshotsTable = &schema.Table{
		Name:       stateSnapshotsTable,
		Columns:    StateSnapshotsColumns,
		PrimaryKey: []*schema.Column{StateSnapshotsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "statesnapshot_learner_id_topic_key",
				Columns: []*schema.Column{StateSnapshotsColumns[2], StateSnapshotsColumns[3]},
			},
		},
	}

	// LearnerXPColumns holds the columns for the "learner_xp" table.
	LearnerXPColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "learner_id", Type: field.TypeString, Unique: true},
		{Name: "total_xp", Type: field.TypeInt64, Default: 0},
		{Name: "updated_at", Type: field.TypeTime},
	}
	// LearnerXPTable accumulates XP per learner.
	LearnerXPTable = &schema.Table{
		Name:       learnerXPTable,
		Columns:    LearnerXPColumns,
		PrimaryKey: []*schema.Column{LearnerXPColumns[0]},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		AdaptiveStatesTable,
		QValueEventsTable,
		StateSnapshotsTable,
		LearnerXPTable,
	}
)

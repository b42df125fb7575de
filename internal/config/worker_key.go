package config

type WorkerKeyStruct struct {
	// PersistJournalQueue is the Redis list drained into the sync_journal table.
	PersistJournalQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistJournalQueue: "persist_journal_queue",
}

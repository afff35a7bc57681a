package event

const StampRequestedDestination string = "ledger_stamp_requested"
const StampRequestedConsumerLedger string = "ledger_stamp_requested_ledger"

const FileStampedDestination string = "ledger_file_stamped"

type StampRequestedMessage struct {
	FileHash string `json:"file_hash"`
}

type FileStampedMessage struct {
	EventID    int64  `json:"event_id"`
	FileHash   string `json:"file_hash"`
	Timestamp  uint64 `json:"timestamp"`
	Commitment string `json:"commitment"`
	Audit      string `json:"audit"`
}

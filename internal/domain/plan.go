package domain

// PlanFree is the implicit plan id reported for accounts that never selected
// a plan. It is not purchasable and never appears in the catalog.
const PlanFree = "free"

// SupportTier enumerates support levels attached to a plan.
type SupportTier string

const (
	SupportCommunity SupportTier = "community"
	SupportStandard  SupportTier = "standard"
	SupportPriority  SupportTier = "priority"
)

// BackupTier enumerates backup levels attached to a plan.
type BackupTier string

const (
	BackupNone   BackupTier = "none"
	BackupDaily  BackupTier = "daily"
	BackupHourly BackupTier = "hourly"
)

// Plan is an immutable purchasable plan definition. Plans are looked up by id
// only and never mutated.
type Plan struct {
	ID           string
	Name         string
	MonthlyPrice int64 // IDR, minor units
	Features     []string
	MaxProducts  int
	MaxUsers     int
	SupportTier  SupportTier
	BackupTier   BackupTier
	Trial        bool // subscribing grants a free trial instead of a paid term
}

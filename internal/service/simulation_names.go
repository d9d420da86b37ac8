package service

import "fmt"

// ── 模拟数据词库 ──

var visitorFirstNames = []string{
	"James", "John", "Robert", "Michael", "David", "William", "Richard", "Joseph",
	"Mary", "Patricia", "Jennifer", "Linda", "Elizabeth", "Barbara", "Susan", "Jessica",
	"Daniel", "Matthew", "Anthony", "Mark", "Donald", "Steven", "Paul", "Andrew",
	"Sarah", "Karen", "Nancy", "Lisa", "Betty", "Margaret", "Sandra", "Ashley",
}

var visitorLastNames = []string{
	"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis",
	"Rodriguez", "Martinez", "Hernandez", "Lopez", "Gonzalez", "Wilson", "Anderson",
	"Thomas", "Taylor", "Moore", "Jackson", "Martin", "Lee", "Perez", "Thompson",
}

var visitorOrganizations = []string{
	"Department of National Defence", "Veterans Affairs Canada", "Canadian Forces",
	"Navy League of Canada", "Royal Canadian Legion", "Sea Cadets", "Local Business",
	"City of Winnipeg", "Province of Manitoba", "Media", "Contractor Services",
	"IT Solutions Inc.", "Security Services Ltd.", "Catering Co.", "Event Planning",
}

var visitTypes = []string{"contractor", "recruitment", "official", "other", "general"}

var visitReasons = []string{
	"Scheduled meeting",
	"Facility tour",
	"Contractor work",
	"Recruitment interview",
	"Document pickup",
	"VIP visit",
	"Vendor presentation",
	"Maintenance",
}

var flagReasons = []string{
	"Unusual time",
	"Manual review required",
	"Badge read error - manually verified",
}

var eventPrefixes = []string{"Annual", "Monthly", "Quarterly", "Special", "Unit", "Division"}

var eventTypes = []string{
	"Mess Dinner", "Awards Ceremony", "Training Exercise", "Open House",
	"Remembrance Service", "Change of Command", "Inspection", "Drill Competition",
	"Career Fair", "Recruiting Event", "Community Outreach", "VIP Visit",
}

var attendeeRoles = []string{"Guest", "VIP", "Participant", "Observer", "Speaker", "Organizer"}

// 空字符串表示无军衔
var attendeeRanks = []string{"", "Cdr", "LCdr", "Lt(N)", "SLt", "CPO1", "CPO2", "PO1", "PO2", "MS", "LS", "AB"}

// randomPerson 生成访客 / 活动参与者的姓名与单位
func randomPerson(r *Random) (name, organization string) {
	name = Pick(r, visitorFirstNames) + " " + Pick(r, visitorLastNames)
	return name, Pick(r, visitorOrganizations)
}

func randomEventName(r *Random) string {
	return Pick(r, eventPrefixes) + " " + Pick(r, eventTypes)
}

func randomEventCode(r *Random, year, seq int) string {
	return fmt.Sprintf("EVT-%d-%d-%d", year, r.Int(100, 999), seq)
}

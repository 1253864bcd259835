package domain

// DocType is a fine-grained upstream document type.
type DocType string

// EventType is the consolidated event bucket a DocType maps onto.
type EventType string

func (t EventType) String() string { return string(t) }

// FilingYearForAction is both the synthesized default event type and the
// datetime event name carried by every event.
const FilingYearForAction = "Filing Year For Action"

const (
	EventTypeFilingYearForAction      EventType = FilingYearForAction
	EventTypeOrder                    EventType = "Order"
	EventTypeAffidavitDeclaration     EventType = "Affidavit/Declaration"
	EventTypeAmicusMotionBrief        EventType = "Amicus Motion/Brief"
	EventTypeAnswer                   EventType = "Answer"
	EventTypeAppeal                   EventType = "Appeal"
	EventTypeBrief                    EventType = "Brief"
	EventTypeComplaint                EventType = "Complaint"
	EventTypeDecision                 EventType = "Decision"
	EventTypeExhibitAppendix          EventType = "Exhibit/Appendix"
	EventTypeLetterNotice             EventType = "Letter/Notice"
	EventTypeMemorandum               EventType = "Memorandum"
	EventTypeMotion                   EventType = "Motion"
	EventTypeMotionForSummaryJudgment EventType = "Motion For Summary Judgment"
	EventTypeMotionToDismiss          EventType = "Motion To Dismiss"
	EventTypePetition                 EventType = "Petition"
	EventTypePressRelease             EventType = "Press Release"
	EventTypeReport                   EventType = "Report"
	EventTypeRequest                  EventType = "Request"
	EventTypeResponseReply            EventType = "Response/Reply"
	EventTypeSettlementAgreement      EventType = "Settlement Agreement"
	EventTypeTranscript               EventType = "Transcript"
	EventTypeOther                    EventType = "Other"
)

// docTypeToEventType is the full upstream DocType enumeration together with
// the consolidated event type for each entry.
var docTypeToEventType = map[DocType]EventType{
	"Administrative Order":                EventTypeOrder,
	"Affidavit":                           EventTypeAffidavitDeclaration,
	"Affirmation":                         EventTypeAffidavitDeclaration,
	"Affixed":                             EventTypeOther,
	"Amicus Brief":                        EventTypeAmicusMotionBrief,
	"Amicus Motion":                       EventTypeAmicusMotionBrief,
	"Answer":                              EventTypeAnswer,
	"Appeal":                              EventTypeAppeal,
	"Appendix":                            EventTypeExhibitAppendix,
	"Application":                         EventTypeRequest,
	"Application For Administrative Stay": EventTypeRequest,
	"Assurance Of Discontinuance":         EventTypeSettlementAgreement,
	"Bill Of Complaint":                   EventTypeComplaint,
	"Brief":                               EventTypeBrief,
	"Complaint":                           EventTypeComplaint,
	"Conciliation Agreement":              EventTypeSettlementAgreement,
	"Consent Decree":                      EventTypeSettlementAgreement,
	"Consent Motion":                      EventTypeMotion,
	"Consent Order":                       EventTypeDecision,
	"Declaration":                         EventTypeAffidavitDeclaration,
	"Decision":                            EventTypeDecision,
	"Exhibit":                             EventTypeExhibitAppendix,
	"Expert Report":                       EventTypeReport,
	"Federal Register Notice":             EventTypeLetterNotice,
	"Filing Year For Action":              EventTypeFilingYearForAction,
	"Final Decision":                      EventTypeDecision,
	"Final Determination":                 EventTypeDecision,
	"Findings And Recommendations":        EventTypeDecision,
	"Findings Of Fact And Conclusions Of Law": EventTypeDecision,
	"Joint Proposed Remedy":                   EventTypeOther,
	"Joinder":                                 EventTypeMotion,
	"Judgment":                                EventTypeDecision,
	"Letter":                                  EventTypeLetterNotice,
	"Memorandum":                              EventTypeMemorandum,
	"Memorandum And Order":                    EventTypeDecision,
	"Memorandum Decision":                     EventTypeDecision,
	"Memorandum Of Decision":                  EventTypeDecision,
	"Memorandum Of Law":                       EventTypeMemorandum,
	"Memorandum Opinion":                      EventTypeDecision,
	"Memorandum Opinion And Order":            EventTypeDecision,
	"Minute Order":                            EventTypeDecision,
	"Minute Proceedings":                      EventTypeTranscript,
	"Motion":                                  EventTypeMotion,
	"Motion For Summary Judgment":             EventTypeMotionForSummaryJudgment,
	"Motion To Dismiss":                       EventTypeMotionToDismiss,
	"Motion To Intervene":                     EventTypeMotion,
	"Notice":                                  EventTypeLetterNotice,
	"Notice Of Appeal":                        EventTypeAppeal,
	"Notice Of Intent":                        EventTypeLetterNotice,
	"Notice Of Intent To Sue":                 EventTypeLetterNotice,
	"Notice Of Removal":                       EventTypeLetterNotice,
	"Notice Of Ruling":                        EventTypeDecision,
	"Notice Of Voluntary Dismissal":           EventTypeLetterNotice,
	"Notification":                            EventTypeLetterNotice,
	"Objection":                               EventTypeResponseReply,
	"Opinion":                                 EventTypeDecision,
	"Opinion And Order":                       EventTypeDecision,
	"Opposition":                              EventTypeResponseReply,
	"Order":                                   EventTypeDecision,
	"Order Denying Petition For Review":       EventTypeDecision,
	"Order List":                              EventTypeDecision,
	"Order To Show Cause":                     EventTypeDecision,
	"Petition":                                EventTypePetition,
	"Petition For Reconsideration":            EventTypePetition,
	"Petition For Rehearing":                  EventTypePetition,
	"Petition For Review":                     EventTypePetition,
	"Petition For Rulemaking":                 EventTypePetition,
	"Petition For Writ Of Certiorari":         EventTypePetition,
	"Petition For Writ Of Mandate":            EventTypePetition,
	"Plea":                                    EventTypePetition,
	"Points Of Claim":                         EventTypePetition,
	"Press Release":                           EventTypePressRelease,
	"Reply":                                   EventTypeResponseReply,
	"Request":                                 EventTypeRequest,
	"Request For Administrative Stay":         EventTypeRequest,
	"Request For Rehearing":                   EventTypeRequest,
	"Report And Recommendation":               EventTypeDecision,
	"Response":                                EventTypeResponseReply,
	"Response To Petition For Rulemaking":     EventTypeResponseReply,
	"Ruling":                                  EventTypeDecision,
	"Settlement Agreement":                    EventTypeSettlementAgreement,
	"Statement":                               EventTypeOther,
	"Statement Of Issues":                     EventTypeOther,
	"Statement Of Reply":                      EventTypeResponseReply,
	"Status Report":                           EventTypeReport,
	"Stipulation":                             EventTypeOther,
	"Subpoena":                                EventTypeOther,
	"Sur-Reply":                               EventTypeResponseReply,
	"Summons":                                 EventTypeOther,
	"Supplement":                              EventTypeOther,
	"Tentative Ruling":                        EventTypeDecision,
	"Transcript":                              EventTypeTranscript,
	"Verdict":                                 EventTypeDecision,
}

// docTypesByFold indexes the enumeration by lower-cased value.
var docTypesByFold = func() map[string]DocType {
	m := make(map[string]DocType, len(docTypeToEventType))
	for dt := range docTypeToEventType {
		m[NormalizeLabel(string(dt))] = dt
	}
	return m
}()

// LookupDocType finds the enumeration entry matching raw, ignoring case and
// whitespace differences.
func LookupDocType(raw string) (DocType, bool) {
	dt, ok := docTypesByFold[NormalizeLabel(raw)]
	return dt, ok
}

// ConsolidatedEventType maps a raw upstream document type onto its
// consolidated event type.
func ConsolidatedEventType(raw string) (EventType, bool) {
	dt, ok := LookupDocType(raw)
	if !ok {
		return "", false
	}
	et, ok := docTypeToEventType[dt]
	return et, ok
}

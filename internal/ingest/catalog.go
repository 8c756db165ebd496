package ingest

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

var (
	criticalityChoices = []string{"Low", "Medium", "High", "Critical"}
	priorityChoices    = []string{"Low", "Medium", "High", "Critical"}
	incidentStatuses   = []string{"Open", "New", "In Progress", "Under Investigation", "Resolved", "Closed", "Escalated", "Risk Mitigated"}
	incidentOrigins    = []string{"AUDIT_FINDING", "MANUAL", "AUTOMATED", "EXTERNAL_REPORT", "INTERNAL_DETECTION"}
	rejectionSources   = []string{"INCIDENT", "RISK"}
	incidentCategories = []string{
		"Security Breach", "Data Loss", "System Outage", "Compliance Violation",
		"Operational Failure", "Third-Party Issue", "Human Error", "Natural Disaster",
		"Cyber Attack", "Privacy Incident", "Safety Incident", "Financial Loss",
	}
	riskCategories = []string{
		"Operational", "Financial", "Strategic", "Compliance", "Technical",
		"Reputational", "Information Security", "Process Risk", "Third-Party",
		"Regulatory", "Governance",
	}
	riskTypes          = []string{"Current", "Residual", "Inherent", "Emerging", "Accepted"}
	riskOrigins        = []string{"Internal", "External", "Third-Party", "Regulatory", "Market", "Operational"}
	appetiteLevels     = []string{"Low", "Medium", "High"}
	responseTypes      = []string{"Avoid", "Mitigate", "Transfer", "Accept"}
	riskStatuses       = []string{"Not Assigned", "Assigned", "Approved", "Rejected"}
	mitigationStatuses = []string{"Pending", "Yet to Start", "Work In Progress", "Revision Required by Reviewer", "Revision Required by User", "Completed"}
)

func oneOf(choices []string) string {
	return strings.Join(choices, ", ")
}

// exposure derives RiskExposureRating as likelihood x impact.
func exposure(values map[string]any) any {
	lk, ok1 := values["RiskLikelihood"].(float64)
	im, ok2 := values["RiskImpact"].(float64)
	if !ok1 || !ok2 {
		return nil
	}
	return math.Round(lk*im*100) / 100
}

// IncidentSchema targets the incidents table.
var IncidentSchema = &Schema{
	Name:  "incident",
	Table: "incidents",
	Title: "Incident",
	Instructions: "You are a GRC incident analyst. Analyze the document and extract the incident it describes. " +
		"Use the exact literals listed for choice fields. Booleans are true/false. Dates are YYYY-MM-DD.",
	Fields: []Field{
		{Name: "IncidentTitle", Type: TypeString, Required: true, Default: "Untitled Incident",
			Prompt: "Extract or generate a clear, concise incident title (max 255 characters). Format: '[Incident Type] - [Key Impact] - [Timeframe if available]'."},
		{Name: "Date", Type: TypeDate, Required: true, Default: DefaultToday,
			Prompt: "Return the date the incident occurred or was reported, in YYYY-MM-DD format."},
		{Name: "Description", Type: TypeString,
			Prompt: "Describe what happened, when and how it was detected, the affected systems and the immediate consequences in 3-5 factual sentences."},
		{Name: "Mitigation", Type: TypeJSON, Required: true, Default: []any{},
			Prompt: "Return a JSON array of mitigation steps, each with 'step', 'status' (Completed/Planned/In Progress), 'responsible' and 'deadline' (YYYY-MM-DD)."},
		{Name: "Origin", Type: TypeEnum, Required: true, Choices: incidentOrigins, Default: "MANUAL",
			Prompt: "Classify the incident origin: AUDIT_FINDING (audit), MANUAL (person reported), AUTOMATED (system detected), EXTERNAL_REPORT (outside party), INTERNAL_DETECTION (internal monitoring)."},
		{Name: "Comments", Type: TypeString,
			Prompt: "Provide 2-3 sentences of additional context beyond the main description."},
		{Name: "RiskCategory", Type: TypeString, Choices: riskCategories,
			Prompt: "Select the primary risk category based on the core nature of the incident."},
		{Name: "IncidentCategory", Type: TypeString, Choices: incidentCategories,
			Prompt: "Choose the category reflecting the type of incident event."},
		{Name: "RiskPriority", Type: TypeEnum, Required: true, Choices: priorityChoices, Default: "Medium",
			Prompt: "Assess priority: Critical (immediate threat), High (prompt action needed), Medium (manageable timeline), Low (minimal urgency)."},
		{Name: "Attachments", Type: TypeString,
			Prompt: "List file names or document references mentioned, separated by semicolons."},
		{Name: "Status", Type: TypeEnum, Required: true, Choices: incidentStatuses, Default: "Open",
			Prompt: "Determine the current incident status."},
		{Name: "RepeatedNot", Type: TypeBoolean, Required: true, Default: false,
			Prompt: "Return true if the document says the incident is recurring or happened before, otherwise false."},
		{Name: "CostOfIncident", Type: TypeString,
			Prompt: "Extract the financial cost or impact, e.g. '$50,000' or 'Estimated $100K-$150K'."},
		{Name: "ReopenedNot", Type: TypeBoolean, Required: true, Default: false,
			Prompt: "Return true only if the document states the incident was closed and then reopened."},
		{Name: "RejectionSource", Type: TypeEnum, Choices: rejectionSources,
			Prompt: "Return INCIDENT if rejected from the incident workflow, RISK if escalated from risk assessment, or null."},
		{Name: "AffectedBusinessUnit", Type: TypeString,
			Prompt: "Extract the business units or departments impacted, comma-separated."},
		{Name: "SystemsAssetsInvolved", Type: TypeString,
			Prompt: "List the systems, applications or infrastructure affected, with hostnames or versions when given."},
		{Name: "GeographicLocation", Type: TypeString,
			Prompt: "Specify the physical or logical location of the incident."},
		{Name: "Criticality", Type: TypeEnum, Required: true, Choices: criticalityChoices, Default: "Medium",
			Prompt: "Assess criticality: Critical (threatens core business), High (significant impact), Medium (moderate impact with workarounds), Low (minimal impact)."},
		{Name: "InitialImpactAssessment", Type: TypeString,
			Prompt: "Summarize operational impact, affected stakeholders, integrity concerns and preliminary scope in 3-4 sentences."},
		{Name: "InternalContacts", Type: TypeString,
			Prompt: "List internal personnel involved or notified, with roles."},
		{Name: "ExternalPartiesInvolved", Type: TypeString,
			Prompt: "Identify external organizations, vendors or partners involved."},
		{Name: "RegulatoryBodies", Type: TypeString,
			Prompt: "List regulators or agencies requiring notification."},
		{Name: "RelevantPoliciesProceduresViolated", Type: TypeString,
			Prompt: "Identify specific policies, procedures or standards violated."},
		{Name: "ControlFailures", Type: TypeString,
			Prompt: "Describe the controls or safeguards that failed in 2-3 sentences."},
		{Name: "RootCause", Type: TypeString,
			Prompt: "State the root cause of the incident in one or two sentences."},
		{Name: "LessonsLearned", Type: TypeString,
			Prompt: "Summarize actionable lessons learned in 2-4 sentences."},
		{Name: "IncidentClassification", Type: TypeString,
			Prompt: "Extract the classification code, e.g. 'P1: Production Outage'."},
		{Name: "PossibleDamage", Type: TypeString,
			Prompt: "Describe the potential operational, financial, reputational and legal damages in 2-3 sentences."},
		{Name: "IncidentFormDetails", Type: TypeJSON, Required: true, Default: map[string]any{},
			Prompt: "Return a JSON object with keys reported_by, detection_method, response_time_minutes, escalation_level, containment_status, root_cause_category, affected_records_count and recovery_time_objective."},
	},
}

// RiskSchema targets the risk register table.
var RiskSchema = &Schema{
	Name:  "risk",
	Table: "risk",
	Title: "Risk",
	Instructions: "You are a GRC risk analyst. Analyze the document and extract the risk it describes. " +
		"Likelihood and impact are integers from 1 to 10. Dates are YYYY-MM-DD.",
	Fields: []Field{
		{Name: "RiskTitle", Type: TypeString, Required: true, Default: "Untitled Risk",
			Prompt: "Return the risk title exactly as stated in the document."},
		{Name: "Criticality", Type: TypeEnum, Required: true, Choices: criticalityChoices, Default: "Medium",
			Prompt: "Assess the criticality of the risk."},
		{Name: "PossibleDamage", Type: TypeString,
			Prompt: "Describe concrete damages (data loss, downtime, penalties, reputation) in 1-2 sentences."},
		{Name: "Category", Type: TypeString, Choices: riskCategories,
			Prompt: "Return the best fitting risk category."},
		{Name: "RiskType", Type: TypeEnum, Required: true, Choices: riskTypes, Default: "Current",
			Prompt: "Classify the risk type."},
		{Name: "BusinessImpact", Type: TypeString,
			Prompt: "Explain the business impact (SLA breach, revenue, compliance) in 1-2 sentences."},
		{Name: "RiskDescription", Type: TypeString,
			Prompt: "Describe how and why the risk arises in 1-3 sentences."},
		{Name: "RiskLikelihood", Type: TypeNumber, Integer: true, Min: bound(1), Max: bound(10),
			Prompt: "Return an integer 1-10 (1=rare, 10=almost certain)."},
		{Name: "RiskImpact", Type: TypeNumber, Integer: true, Min: bound(1), Max: bound(10),
			Prompt: "Return an integer 1-10 (1=negligible, 10=catastrophic)."},
		{Name: "RiskExposureRating", Type: TypeNumber, Min: bound(0), Max: bound(100), Derive: exposure,
			Prompt: "Return a number from 0 to 100 for overall exposure."},
		{Name: "RiskPriority", Type: TypeEnum, Required: true, Choices: priorityChoices, Default: "Medium",
			Prompt: "Return the priority based on exposure and criticality."},
		{Name: "RiskMitigation", Type: TypeString,
			Prompt: "Return 2-4 actionable mitigation steps as one paragraph."},
		{Name: "CreatedAt", Type: TypeDate, Required: true, Default: DefaultToday,
			Prompt: "Return the assessment date in YYYY-MM-DD format."},
		{Name: "RiskMultiplierX", Type: TypeNumber, Required: true, Min: bound(0.1), Max: bound(1.5), Default: 0.5,
			Prompt: "Return a number in 0.1-1.5 reflecting the organization's likelihood weighting factor."},
		{Name: "RiskMultiplierY", Type: TypeNumber, Required: true, Min: bound(0.1), Max: bound(1.5), Default: 0.5,
			Prompt: "Return a number in 0.1-1.5 reflecting the organization's impact weighting factor."},
	},
}

// RiskInstanceSchema targets the risk_instance table.
var RiskInstanceSchema = &Schema{
	Name:  "risk_instance",
	Table: "risk_instance",
	Title: "Risk instance",
	Instructions: "You are a GRC risk analyst. Analyze the document and extract the risk instance (a concrete occurrence of a risk) it describes. " +
		"Likelihood and impact are integers from 1 to 10.",
	Fields: []Field{
		{Name: "RiskTitle", Type: TypeString, Required: true, Default: "Untitled Risk Instance",
			Prompt: "Return the risk instance title exactly as stated in the document."},
		{Name: "RiskDescription", Type: TypeString,
			Prompt: "Describe what happened, when, and who was affected in 2-4 sentences."},
		{Name: "PossibleDamage", Type: TypeString,
			Prompt: "Describe the damages that occurred or could occur, quantitatively where possible."},
		{Name: "RiskPriority", Type: TypeEnum, Required: true, Choices: priorityChoices, Default: "Medium",
			Prompt: "Return the priority based on exposure, criticality and urgency."},
		{Name: "Criticality", Type: TypeEnum, Required: true, Choices: criticalityChoices, Default: "Medium",
			Prompt: "Assess the criticality of the risk instance."},
		{Name: "Category", Type: TypeString, Choices: riskCategories,
			Prompt: "Return the best fitting risk category."},
		{Name: "Origin", Type: TypeEnum, Choices: riskOrigins,
			Prompt: "Identify where the risk originated."},
		{Name: "RiskLikelihood", Type: TypeNumber, Integer: true, Min: bound(1), Max: bound(10),
			Prompt: "Return an integer 1-10 (1=rare, 5=possible, 10=almost certain)."},
		{Name: "RiskImpact", Type: TypeNumber, Integer: true, Min: bound(1), Max: bound(10),
			Prompt: "Return an integer 1-10 (1=negligible, 5=moderate, 10=catastrophic)."},
		{Name: "RiskExposureRating", Type: TypeNumber, Min: bound(0), Max: bound(100), Derive: exposure,
			Prompt: "Return a number from 0 to 100 for overall exposure."},
		{Name: "RiskMultiplierX", Type: TypeNumber, Required: true, Min: bound(0.1), Max: bound(2), Default: 1.0,
			Prompt: "Return a number in 0.1-2.0 for the likelihood weighting factor."},
		{Name: "RiskMultiplierY", Type: TypeNumber, Required: true, Min: bound(0.1), Max: bound(2), Default: 1.0,
			Prompt: "Return a number in 0.1-2.0 for the impact weighting factor."},
		{Name: "Appetite", Type: TypeEnum, Choices: appetiteLevels,
			Prompt: "Determine the organization's tolerance for this risk."},
		{Name: "RiskResponseType", Type: TypeEnum, Choices: responseTypes,
			Prompt: "Choose the response: Avoid, Mitigate, Transfer or Accept."},
		{Name: "RiskResponseDescription", Type: TypeString,
			Prompt: "Describe the chosen response strategy in 2-3 sentences."},
		{Name: "RiskMitigation", Type: TypeJSON, Required: true, Default: []any{},
			Prompt: "Return a JSON array of 3-5 objects with 'step' and 'description'."},
		{Name: "RiskType", Type: TypeEnum, Required: true, Choices: riskTypes, Default: "Current",
			Prompt: "Classify the risk type."},
		{Name: "RiskOwner", Type: TypeString,
			Prompt: "Return the person, role or department responsible for this risk."},
		{Name: "BusinessImpact", Type: TypeString,
			Prompt: "Explain the business impact in 2-4 sentences."},
		{Name: "RiskStatus", Type: TypeEnum, Required: true, Choices: riskStatuses, Default: "Not Assigned",
			Prompt: "Assess the current state of the risk instance."},
		{Name: "MitigationStatus", Type: TypeEnum, Required: true, Choices: mitigationStatuses, Default: "Pending",
			Prompt: "Determine mitigation progress."},
		{Name: "ModifiedMitigations", Type: TypeJSON, Required: true, Default: []any{},
			Prompt: "Return a JSON array of changes to the original mitigation plan with date, changed_by, changes and reason, or []."},
		{Name: "RiskFormDetails", Type: TypeJSON,
			Prompt: "Return a JSON object with assessment_method, data_sources, stakeholders_consulted, assessment_date, next_review_date and additional_notes."},
		{Name: "Reviewer", Type: TypeString,
			Prompt: "Return the name or role of the reviewer."},
	},
}

// Catalog looks schemas up by name.
type Catalog struct {
	byName map[string]*Schema
}

// NewCatalog validates and registers schemas.
func NewCatalog(schemas ...*Schema) (*Catalog, error) {
	c := &Catalog{byName: make(map[string]*Schema, len(schemas))}
	for _, s := range schemas {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.byName[s.Name]; dup {
			return nil, fmt.Errorf("duplicate schema %s", s.Name)
		}
		c.byName[s.Name] = s
	}
	return c, nil
}

// DefaultCatalog holds the incident, risk and risk instance schemas.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(IncidentSchema, RiskSchema, RiskInstanceSchema)
	if err != nil {
		panic(err)
	}
	return c
}

// Get returns the schema registered under name.
func (c *Catalog) Get(name string) (*Schema, bool) {
	s, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	return s, ok
}

// Names lists registered schema names in sorted order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.byName))
	for name := range c.byName {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

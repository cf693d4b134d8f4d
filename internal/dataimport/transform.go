package dataimport

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// Row transforms coerce the semi-structured upload rows into the staging
// schemas. Missing required fields fail the row, not the batch.

func stringField(row map[string]interface{}, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

func floatField(row map[string]interface{}, key string) (float64, error) {
	switch v := row[key].(type) {
	case float64:
		return v, nil
	case string:
		if v == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("%s is not a number: %q", key, v)
		}
		return f, nil
	case nil:
		return 0, nil
	default:
		return 0, fmt.Errorf("%s has unsupported type %T", key, v)
	}
}

func intField(row map[string]interface{}, key string) (int64, error) {
	f, err := floatField(row, key)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

// dateField accepts ISO dates with or without a time component.
func dateField(row map[string]interface{}, key string) (time.Time, error) {
	s := stringField(row, key)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02", "01/02/2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%s is not a recognized date: %q", key, s)
}

func transformClaim(row map[string]interface{}, batchID, orgID string) (*ClaimRow, error) {
	claimID := stringField(row, "claim_id")
	if claimID == "" {
		return nil, errors.New("claim_id is required")
	}
	amount, err := floatField(row, "amount")
	if err != nil {
		return nil, err
	}
	serviceDate, err := dateField(row, "service_date")
	if err != nil {
		return nil, err
	}
	return &ClaimRow{
		BatchID:     batchID,
		OrgID:       orgID,
		ClaimID:     claimID,
		MemberID:    stringField(row, "member_id"),
		Amount:      amount,
		ServiceDate: serviceDate,
		Status:      stringField(row, "status"),
		CreatedAt:   time.Now(),
	}, nil
}

func transformEnrollment(row map[string]interface{}, batchID, orgID string) (*EnrollmentRow, error) {
	memberID := stringField(row, "member_id")
	if memberID == "" {
		return nil, errors.New("member_id is required")
	}
	effectiveDate, err := dateField(row, "effective_date")
	if err != nil {
		return nil, err
	}
	return &EnrollmentRow{
		BatchID:       batchID,
		OrgID:         orgID,
		MemberID:      memberID,
		PlanCode:      stringField(row, "plan_code"),
		EffectiveDate: effectiveDate,
		Status:        stringField(row, "status"),
		CreatedAt:     time.Now(),
	}, nil
}

func transformRevenue(row map[string]interface{}, batchID, orgID string) (*RevenueRow, error) {
	period := stringField(row, "period")
	if period == "" {
		return nil, errors.New("period is required")
	}
	amount, err := floatField(row, "amount")
	if err != nil {
		return nil, err
	}
	if _, present := row["amount"]; !present {
		return nil, errors.New("amount is required")
	}
	return &RevenueRow{
		BatchID:   batchID,
		OrgID:     orgID,
		Period:    period,
		Amount:    amount,
		Segment:   stringField(row, "segment"),
		Source:    stringField(row, "source"),
		CreatedAt: time.Now(),
	}, nil
}

func transformMarketing(row map[string]interface{}, batchID, orgID string) (*MarketingRow, error) {
	campaignID := stringField(row, "campaign_id")
	if campaignID == "" {
		return nil, errors.New("campaign_id is required")
	}
	spend, err := floatField(row, "spend")
	if err != nil {
		return nil, err
	}
	leads, err := intField(row, "leads")
	if err != nil {
		return nil, err
	}
	return &MarketingRow{
		BatchID:    batchID,
		OrgID:      orgID,
		CampaignID: campaignID,
		Channel:    stringField(row, "channel"),
		Spend:      spend,
		Leads:      leads,
		Period:     stringField(row, "period"),
		CreatedAt:  time.Now(),
	}, nil
}

package tiktok

import (
	"fmt"
	"strings"

	"telegram-tiktok-checker/internal/domain/model"
)

// definiteNotFound markers are API payloads embedded in the page that
// conclusively mean the profile does not exist.
var definiteNotFound = []string{
	`"statuscode":10202`,
	`"statuscode": 10202`,
	`"status_code":10202`,
	`"status_code": 10202`,
	`"statusmsg":"user not exist"`,
	`"statusmsg": "user not exist"`,
	`"statusmsg":"user doesn't exist"`,
	`"errormsg":"user not exist"`,
}

// profileIndicators are JSON fields only present on hydrated profile pages.
var profileIndicators = []string{
	`"followercount"`,
	`"followingcount"`,
	`"heartcount"`,
	`"videocount"`,
	`"diggcount"`,
	`"follower_count"`,
	`"following_count"`,
	`"heart_count"`,
}

var bannedIndicators = []string{
	"this account has been banned",
	"account suspended",
	"this account is suspended",
	"this account was banned",
	"account has been suspended",
	"violates our community guidelines",
	`"statuscode":10101`,
	`"status_code":10101`,
}

// textNotFound phrases are weaker signals than the JSON markers above and
// are checked last.
var textNotFound = []string{
	"couldn't find this account",
	"couldn't find this page",
	"user not found",
	"page not found",
	"this account doesn't exist",
	"user doesn't exist",
}

// Classify maps a profile page response to a verdict and a reason code.
// The analysis is biased toward TAKEN: a name is only reported available
// when the page positively says the profile does not exist.
func Classify(username string, statusCode int, body string) (model.UsernameStatus, string) {
	content := strings.ToLower(body)
	name := strings.ToLower(username)

	// No profile page at all.
	if statusCode == 404 {
		return model.StatusAvailable, model.ReasonProfileNotFound
	}

	if statusCode == 200 {
		for _, marker := range definiteNotFound {
			if strings.Contains(content, marker) {
				return model.StatusAvailable, model.ReasonNotFoundMarker
			}
		}

		// The hydration JSON carries the handle of the profile being served.
		uniqueIDPatterns := []string{
			fmt.Sprintf(`"uniqueid":"%s"`, name),
			fmt.Sprintf(`"uniqueid": "%s"`, name),
			fmt.Sprintf(`"unique_id":"%s"`, name),
			fmt.Sprintf(`"unique_id": "%s"`, name),
		}
		for _, pattern := range uniqueIDPatterns {
			if strings.Contains(content, pattern) {
				return model.StatusTaken, model.ReasonUniqueIDMatch
			}
		}

		score := 0
		for _, field := range profileIndicators {
			if strings.Contains(content, field) {
				score++
			}
		}
		if score >= 2 {
			return model.StatusTaken, model.ReasonProfileData
		}

		for _, marker := range bannedIndicators {
			if strings.Contains(content, marker) {
				return model.StatusUnavailable, model.ReasonBannedMarker
			}
		}

		for _, phrase := range textNotFound {
			if strings.Contains(content, phrase) {
				return model.StatusAvailable, model.ReasonNotFoundText
			}
		}

		return model.StatusTaken, model.ReasonAssumedTaken
	}

	if statusCode == 403 {
		return model.StatusError, model.ReasonForbidden
	}
	if statusCode >= 500 {
		return model.StatusError, model.ReasonServerError
	}

	// Unknown status, assume taken rather than report a false available.
	return model.StatusTaken, model.ReasonAmbiguous
}

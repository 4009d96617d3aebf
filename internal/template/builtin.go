package template

import "github.com/dripware/dripflow/pkg/dripflow/domain"

// Builtin returns the message templates backing the builtin catalog.
func Builtin() []*domain.MessageTemplate {
	return []*domain.MessageTemplate{
		{
			ID:       "welcome_hello",
			Subject:  "Welcome aboard!",
			HTMLBody: `<p>Hi there, thanks for signing up. Your account is ready to go.</p>`,
			TextBody: "Hi there, thanks for signing up. Your account is ready to go.",
		},
		{
			ID:       "welcome_tips",
			Subject:  "Three tips to get started",
			HTMLBody: `<p>Here are three things most people do in their first week.</p>`,
			TextBody: "Here are three things most people do in their first week.",
		},
		{
			ID:       "welcome_checkin",
			Subject:  "How is it going?",
			HTMLBody: `<p>You have been with us a week now. Anything we can help with?</p>`,
			TextBody: "You have been with us a week now. Anything we can help with?",
		},
		{
			ID:       "reengage_miss_you",
			Subject:  "We miss you",
			HTMLBody: `<p>It has been a while. Here is what you have missed.</p>`,
			TextBody: "It has been a while. Here is what you have missed.",
		},
		{
			ID:       "reengage_whats_new",
			Subject:  "What's new since you left",
			HTMLBody: `<p>A quick roundup of recent improvements.</p>`,
			TextBody: "A quick roundup of recent improvements.",
		},
		{
			ID:       "reengage_last_call_a",
			Subject:  "Still interested?",
			HTMLBody: `<p>Your account is waiting for you. Pick up where you left off.</p>`,
			TextBody: "Your account is waiting for you. Pick up where you left off.",
		},
		{
			ID:       "reengage_last_call_b",
			Subject:  "One last nudge",
			HTMLBody: `<p>We'd hate to see you go. Here is a shortcut back in.</p>`,
			TextBody: "We'd hate to see you go. Here is a shortcut back in.",
		},
		{
			ID:       "trial_ending_soon",
			Subject:  "Your trial ends soon",
			HTMLBody: `<p>Your trial is almost over. Keep your data by upgrading any time.</p>`,
			TextBody: "Your trial is almost over. Keep your data by upgrading any time.",
		},
		{
			ID:       "trial_offer_a",
			Subject:  "A little something before your trial ends",
			HTMLBody: `<p>Upgrade this week and get 20% off your first three months.</p>`,
			TextBody: "Upgrade this week and get 20% off your first three months.",
		},
		{
			ID:       "trial_offer_b",
			Subject:  "Don't lose your progress",
			HTMLBody: `<p>Everything you set up stays exactly as it is when you upgrade.</p>`,
			TextBody: "Everything you set up stays exactly as it is when you upgrade.",
		},
		{
			ID:       "retention_thanks",
			Subject:  "Thanks for subscribing",
			HTMLBody: `<p>Welcome to the full experience. Here is everything you just unlocked.</p>`,
			TextBody: "Welcome to the full experience. Here is everything you just unlocked.",
		},
		{
			ID:       "retention_feature_tour",
			Subject:  "Features you might have missed",
			HTMLBody: `<p>Two weeks in, here are the power features subscribers love most.</p>`,
			TextBody: "Two weeks in, here are the power features subscribers love most.",
		},
		{
			ID:       "retention_checkin",
			Subject:  "One month in, how are we doing?",
			HTMLBody: `<p>You have been subscribed a month. We'd love to hear how it's going.</p>`,
			TextBody: "You have been subscribed a month. We'd love to hear how it's going.",
		},
	}
}

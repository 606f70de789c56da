package notification

import (
	"fmt"
	"strconv"

	"HerShield/pkg/geo"
)

// EmergencyAlert is the first message each contact receives on SOS.
func EmergencyAlert(userName string, loc geo.Location, timestamp, relationship string) string {
	attention := fmt.Sprintf("Your relationship with %s requires immediate attention!", userName)
	if relationship != "" {
		attention = fmt.Sprintf("As %s's %s, your immediate attention is required!", userName, relationship)
	}
	return fmt.Sprintf(`🚨 EMERGENCY ALERT! 🚨

URGENT: %s is in danger and has triggered an SOS alert!

%s

📍 Current Location: %s
⏰ Time: %s

⚠️ PLEASE RESPOND IMMEDIATELY! ⚠️
• Try to contact %s immediately
• If no response, contact local authorities
• Share this location with trusted family members
• Keep this number active for updates

This is an automated emergency alert from HerShield.
Stay safe! 🛡️`, userName, attention, loc.MapURL(), timestamp, userName)
}

// FollowUpInstructions is sent only after EmergencyAlert was delivered.
func FollowUpInstructions(userName string, loc geo.Location) string {
	return fmt.Sprintf(`📋 Follow-up Instructions for %[1]s's Emergency:

1️⃣ IMMEDIATE ACTIONS:
   • Call %[1]s multiple times
   • Send text messages asking for response
   • Check social media for any activity

2️⃣ IF NO RESPONSE:
   • Contact local police (100)
   • Call nearby hospitals
   • Alert family members and friends

3️⃣ LOCATION DETAILS:
   • GPS: %[2]s, %[3]s
   • Google Maps: %[4]s

4️⃣ STAY CONNECTED:
   • Keep your phone charged
   • Respond to any updates from %[1]s
   • Share this information with trusted contacts

🆘 This is a real emergency - please act quickly!`,
		userName, formatCoord(loc.Latitude), formatCoord(loc.Longitude), loc.MapURL())
}

func LocationUpdate(userName string, loc geo.Location, timestamp string) string {
	return fmt.Sprintf("📍 Location Update for %s:\nCurrent Location: %s\nTime: %s\nThis is an automated location update from HerShield.",
		userName, loc.MapURL(), timestamp)
}

// AlertConfirmation goes back to the user who triggered the SOS.
func AlertConfirmation(userName string, contactsNotified int) string {
	return fmt.Sprintf(`✅ SOS Alert Confirmation

Dear %s,

Your emergency SOS alert has been successfully sent to %d emergency contacts.

📱 Your contacts have been notified with:
• Your current location
• Emergency instructions
• Contact information

🛡️ Help is on the way! Stay safe and try to:
• Move to a safe location if possible
• Keep your phone charged
• Respond to calls from your contacts

This message is from HerShield - your safety companion.`, userName, contactsNotified)
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

package auth

import (
	"fmt"
	"strings"
)

// ShowCookieExtractionGuide displays step-by-step instructions for
// extracting the three session cookies from a logged-in browser.
func ShowCookieExtractionGuide() {
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println("CLASSDOJO COOKIE EXTRACTION GUIDE")
	fmt.Println(strings.Repeat("=", 72))
	fmt.Println()

	fmt.Println("This tool needs your ClassDojo session cookies to read the story feed.")
	fmt.Println()

	fmt.Println("STEP 1: Log into ClassDojo")
	fmt.Println("   - Go to https://home.classdojo.com and sign in")
	fmt.Println("   - Make sure your class story feed loads")
	fmt.Println()

	fmt.Println("STEP 2: Open Developer Tools (F12) and find the cookies")
	fmt.Println("   - Chrome/Edge: Application tab > Cookies > https://home.classdojo.com")
	fmt.Println("   - Firefox: Storage tab > Cookies > https://home.classdojo.com")
	fmt.Println()

	fmt.Println("STEP 3: Copy the values of these three cookies:")
	fmt.Println("   - dojo_log_session_id")
	fmt.Println("   - dojo_login.sid")
	fmt.Println("   - dojo_home_login.sid")
	fmt.Println()

	fmt.Println("Session cookies expire; re-run 'dojofetch auth login' when")
	fmt.Println("requests start failing with authentication errors.")
	fmt.Println()
}

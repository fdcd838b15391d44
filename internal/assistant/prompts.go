package assistant

import (
	"fmt"
	"strings"

	"github.com/spennies/spennies/internal/domain"
)

// langInstruction maps a declared language to a response-language directive.
func langInstruction(language string) string {
	switch language {
	case "hi":
		return "Respond in Hindi (हिंदी में जवाब दें)."
	case "mr":
		return "Respond in Marathi (मराठीत उत्तर द्या)."
	default:
		return "Respond in English."
	}
}

func toneInstruction(tone string) string {
	switch tone {
	case "motivational":
		return "Be high-energy, encouraging, and inspiring! Use 'You got this!' and 🔥 emojis."
	case "professional":
		return "Be formal, concise, and objective. Focus on facts. No slang."
	case "friendly":
		return "Be casual, warm, and like a helpful friend. Use emojis."
	default:
		return "Be helpful."
	}
}

func jobInstruction(jobType string) string {
	switch jobType {
	case "driver":
		return "User is a Driver. Relate to fuel, maintenance, rides."
	case "freelancer":
		return "User is a Freelancer. Relate to irregular income, clients."
	case "student":
		return "User is a Student. Relate to budget food, books, pocket money."
	case "vendor":
		return "User is a Vendor. Relate to daily cash flow, inventory."
	case "housewife":
		return "User is a Homemaker. Relate to household savings."
	default:
		return ""
	}
}

// buildIntentPrompt embeds the user message, today's date and the full intent
// catalogue with one literal response-shape example per intent. The examples
// are the calibration mechanism: the cheapest failure mode is a mis-route to
// chat, so the prompt biases toward well-formed JSON over creativity.
func buildIntentPrompt(message, today string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "User said: %q\n", message)
	fmt.Fprintf(&b, "Today is: %s\n\n", today)
	b.WriteString("Analyze the intent.\n\n")

	b.WriteString("--- INTENT 1: UPDATE SETTINGS ---\n")
	b.WriteString(`- "Change my name to Ramesh" -> { "action": "update_profile", "field": "name", "value": "Ramesh" }` + "\n")
	b.WriteString(`- "Set job to Driver" -> { "action": "update_profile", "field": "job_type", "value": "driver" }` + "\n")
	b.WriteString(`- "Set food budget to 5000" -> { "action": "update_budget", "category": "Food", "amount": 5000 }` + "\n")
	b.WriteString(`- "Change savings target to 10000" -> { "action": "update_profile", "field": "savings_target", "value": 10000 }` + "\n\n")

	b.WriteString("--- INTENT 2: LOAN ACTIONS ---\n")
	b.WriteString(`- ADD Loan: "Loan taken 5000 from Ramesh", "Borrowed 200 from friend"` + "\n")
	b.WriteString(`  Return: { "action": "add_loan", "amount": 5000, "lender": "Ramesh", "due_date": "YYYY-MM-DD" (default today+7 days if not said) }` + "\n\n")
	b.WriteString(`- PAY Loan: "Paid loan to Ramesh", "Cleared debt of 5000", "Repaid friend"` + "\n")
	b.WriteString(`  Return: { "action": "pay_loan", "lender": "Ramesh" }` + "\n\n")
	b.WriteString(`- DELETE Loan: "Delete loan from Ramesh", "Remove loan entry"` + "\n")
	b.WriteString(`  Return: { "action": "delete_loan", "lender": "Ramesh" }` + "\n\n")

	b.WriteString("--- INTENT 3: TRANSACTION ACTIONS ---\n")
	b.WriteString(`- ADD Transaction: "Spent 50 on chai", "Add 500 income", "Paid 200 for auto yesterday"` + "\n")
	fmt.Fprintf(&b, `  Return: { "action": "add", "amount": 50, "description": "chai", "type": "expense", "date": "YYYY-MM-DD" (if user says 'yesterday' or a specific day, calculate it; default to %s) }`+"\n\n", today)
	b.WriteString(`- DELETE Transaction: "Delete 50 chai", "Remove last expense", "Undo 200 auto"` + "\n")
	b.WriteString(`  Return: { "action": "delete", "amount": 50, "description": "chai" }` + "\n\n")

	b.WriteString("--- INTENT 4: CHAT ---\n")
	b.WriteString(`- Examples: "How much did I spend?", "Hi", "Advice please", "What is my budget?"` + "\n")
	b.WriteString(`  Return: { "action": "chat" }` + "\n\n")

	b.WriteString("Return ONLY JSON. No markdown.\n")

	return b.String()
}

// buildCategorizePrompt asks the model to place a transaction into the
// closed category set.
func buildCategorizePrompt(description string, amount float64) string {
	var b strings.Builder

	b.WriteString("You are a transaction categorizer for Indian users.\n\n")
	fmt.Fprintf(&b, "Transaction: %q\n", description)
	fmt.Fprintf(&b, "Amount: ₹%.2f\n\n", amount)
	b.WriteString("Categorize this into ONE of these categories:\n")
	b.WriteString("- Food (meals, groceries, restaurants, food delivery)\n")
	b.WriteString("- Transport (auto, cab, fuel, metro, bus, bike)\n")
	b.WriteString("- Bills (electricity, water, mobile, internet, recharge)\n")
	b.WriteString("- Shopping (clothes, electronics, general shopping)\n")
	b.WriteString("- Entertainment (movies, games, subscriptions)\n")
	b.WriteString("- Healthcare (medicine, doctor, hospital)\n")
	b.WriteString("- Other (anything else)\n\n")
	b.WriteString("Return ONLY a JSON object with:\n")
	b.WriteString(`{ "category": "category_name", "confidence": 0.0-1.0 }` + "\n\n")
	b.WriteString("No explanation, just the JSON.\n")

	return b.String()
}

// buildChatPrompt renders the persona prompt over the financial context.
func buildChatPrompt(fc *FinancialContext, message string) string {
	var b strings.Builder

	b.WriteString("You are Spennies, a smart financial companion.\n\n")

	b.WriteString("USER PROFILE:\n")
	fmt.Fprintf(&b, "- Name: %s\n", fc.Name)
	fmt.Fprintf(&b, "- Job: %s\n\n", fc.JobType)

	b.WriteString("YOUR PERSONA:\n")
	b.WriteString(toneInstruction(fc.Tone) + "\n")
	if ji := jobInstruction(fc.JobType); ji != "" {
		b.WriteString(ji + "\n")
	}
	b.WriteString("\n")

	b.WriteString("USER FINANCIAL DATA:\n")
	fmt.Fprintf(&b, "- Income: ₹%.0f\n", fc.MonthlyIncome)
	fmt.Fprintf(&b, "- Expenses: ₹%.0f\n", fc.MonthlyExpense)
	fmt.Fprintf(&b, "- Savings: ₹%.0f\n", fc.MonthlySavings())
	fmt.Fprintf(&b, "- Goal: ₹%.0f\n\n", fc.SavingsTarget)

	b.WriteString("Budget Limits:\n")
	b.WriteString(fc.budgetLimitsText() + "\n\n")

	b.WriteString("Recent Transactions:\n")
	b.WriteString(fc.recentTransactionsText() + "\n\n")

	b.WriteString("Active Loans:\n")
	b.WriteString(fc.openLoansText() + "\n\n")

	fmt.Fprintf(&b, "USER QUESTION:\n%q\n\n", message)

	b.WriteString("GUIDELINES:\n")
	b.WriteString("- " + langInstruction(fc.Language) + "\n")
	b.WriteString("- Be concise (max 2-3 sentences).\n")
	b.WriteString("- Address user by name if relevant.\n")
	b.WriteString("- If asked \"Am I over budget?\", compare spending to Budget Limits.\n")

	return b.String()
}

// buildInsightsPrompt asks for three typed insights plus a tip as JSON.
func buildInsightsPrompt(fc *FinancialContext) string {
	var b strings.Builder

	b.WriteString("You are Spennies, a financial coach for gig workers in India.\n\n")
	b.WriteString("CRITICAL INSTRUCTIONS:\n")
	b.WriteString("1. Language: OUTPUT LANGUAGE: ENGLISH.\n")
	b.WriteString("2. Tone: " + toneInstruction(fc.Tone) + "\n")
	b.WriteString("3. Job Context: " + jobContextLine(fc.JobType) + "\n")
	b.WriteString("4. Mix: Include 1 Warning, 1 Success, 1 Info/Observation.\n\n")

	b.WriteString("INPUT DATA:\n")
	fmt.Fprintf(&b, "- Income: ₹%.0f\n", fc.MonthlyIncome)
	fmt.Fprintf(&b, "- Expenses: ₹%.0f\n", fc.MonthlyExpense)
	fmt.Fprintf(&b, "- Savings: ₹%.0f\n", fc.MonthlySavings())
	fmt.Fprintf(&b, "- Goal: ₹%.0f\n\n", fc.SavingsTarget)

	b.WriteString("Category Breakdown:\n")
	b.WriteString(fc.categoryBreakdownText() + "\n\n")

	b.WriteString("Top Expenses:\n")
	b.WriteString(fc.topExpensesText() + "\n\n")

	b.WriteString("REQUIRED OUTPUT FORMAT (JSON):\n")
	b.WriteString(`{
  "insights": [
    { "type": "warning", "message": "Start with a warning if applicable..." },
    { "type": "success", "message": "Highlight a win..." },
    { "type": "info", "message": "Observation about a pattern..." }
  ],
  "tip": "A short, job-relevant tip (max 15 words)."
}` + "\n")

	return b.String()
}

func jobContextLine(jobType string) string {
	switch jobType {
	case "driver":
		return "User is a Driver (Uber/Ola/Delivery). Focus on fuel costs, vehicle maintenance, and daily earnings."
	case "freelancer":
		return "User is a Freelancer. Focus on irregular income management and saving for lean months."
	case "student":
		return "User is a Student. Focus on budget food, books, and low-cost entertainment."
	case "vendor":
		return "User is a Shopkeeper/Vendor. Focus on inventory costs and daily cash flow."
	case "housewife":
		return "User is a Homemaker. Focus on household budget optimization."
	default:
		return "User has a general job."
	}
}

// buildForecastPrompt asks for a short prose explanation of an
// already-computed projection. The numbers are exact arithmetic; only the
// wording is delegated to the model.
func buildForecastPrompt(fc *FinancialContext, p Projection) string {
	var b strings.Builder

	b.WriteString("You are a financial forecaster.\n\n")
	b.WriteString("Current situation:\n")
	fmt.Fprintf(&b, "- Income so far: ₹%.0f\n", fc.MonthlyIncome)
	fmt.Fprintf(&b, "- Expenses so far: ₹%.0f\n", fc.MonthlyExpense)
	fmt.Fprintf(&b, "- Days elapsed: %d/%d\n", p.DaysElapsed, p.DaysInMonth)
	fmt.Fprintf(&b, "- Projected end-of-month savings: ₹%.0f\n", p.ProjectedSavings)
	fmt.Fprintf(&b, "- Savings goal: ₹%.0f\n\n", fc.SavingsTarget)

	b.WriteString(langInstruction(fc.Language) + "\n\n")
	b.WriteString("Explain this forecast in 2-3 sentences. Be encouraging if on track, helpful if behind.\n")
	b.WriteString("Keep it under 150 characters.\n")

	return b.String()
}

// buildChallengePrompt asks for a personalized daily micro-saving challenge.
func buildChallengePrompt(fc *FinancialContext) string {
	var b strings.Builder

	b.WriteString("Generate a micro-saving challenge for a gig worker.\n\n")
	fmt.Fprintf(&b, "User Profile: %s\n", fc.JobType)
	fmt.Fprintf(&b, "Recent Spending:\n%s\n\n", fc.recentTransactionsText())
	b.WriteString("Requirements:\n")
	b.WriteString("1. Simple, actionable task for TODAY.\n")
	b.WriteString("2. Estimated savings amount (₹10-₹200).\n")
	b.WriteString("3. Tone: Encouraging.\n")
	fmt.Fprintf(&b, "4. Language: %s\n\n", fc.Language)
	b.WriteString("Return JSON:\n")
	b.WriteString(`{ "title": "Skip the auto", "description": "Walk for short trips today.", "reward": 50 }` + "\n")

	return b.String()
}

// buildSMSPrompt asks the model to extract a transaction from a bank SMS.
func buildSMSPrompt(smsText, today string) string {
	var b strings.Builder

	b.WriteString("Parse this Indian bank SMS transaction message:\n")
	fmt.Fprintf(&b, "%q\n\n", smsText)
	fmt.Fprintf(&b, "Today is: %s\n\n", today)
	b.WriteString("Extract:\n")
	b.WriteString("- amount (number)\n")
	b.WriteString("- merchant (name)\n")
	b.WriteString("- type (debit/credit)\n")
	fmt.Fprintf(&b, "- category (%s)\n", strings.Join(domain.Categories, "/"))
	fmt.Fprintf(&b, "- date (YYYY-MM-DD). If date is in SMS (e.g. \"on 24-Nov\"), parse it. If missing, use %s.\n\n", today)
	b.WriteString("Return JSON:\n")
	b.WriteString(`{ "amount": 0.0, "merchant": "...", "type": "debit", "category": "...", "date": "YYYY-MM-DD", "confidence": 0.0-1.0 }` + "\n")

	return b.String()
}

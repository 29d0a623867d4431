package catalog

// The default catalog mirrors the profile layout used by equity and M&A
// teams: factual descriptive sections first, financial analysis in the
// middle, synthesis sections last. Only the synthesis sections declare
// dependencies; everything else generates independently.
var defaultSections = []SectionSpec{
	{
		ID: "operating-footprint", Number: 1, Title: "Operating Footprint",
		Specs: "Describe headcount, production sites, offices and logistics assets. " +
			"Lead with the largest operations. Reference each figure to its reporting period.",
	},
	{
		ID: "products-services", Number: 2, Title: "Products and Services",
		Specs: "List the main product lines and service offerings with revenue share where disclosed, " +
			"ordered by importance. Note pricing model and customer type per line.",
	},
	{
		ID: "key-decision-makers", Number: 3, Title: "Key Decision Makers",
		Specs: "Profile the executive board, supervisory board and other key managers, most important first. " +
			"Include tenure, background and stated priorities.",
	},
	{
		ID: "ownership-structure", Number: 4, Title: "Ownership Structure",
		Specs: "Describe major shareholders, free float, voting structures and any shareholder agreements. " +
			"Note stakes above disclosure thresholds with their dates.",
	},
	{
		ID: "corporate-history", Number: 5, Title: "Corporate History",
		Specs: "Summarize founding, major acquisitions, divestitures and restructurings in chronological order, " +
			"focusing on events that shaped the current group perimeter.",
	},
	{
		ID: "business-model", Number: 6, Title: "Business Model",
		Specs: "Explain how the company creates and captures value: inputs, value chain position, " +
			"monetization, recurring vs transactional revenue, switching costs.",
	},
	{
		ID: "market-position", Number: 7, Title: "Market Position and Competition",
		Specs: "Identify served markets, market shares where disclosed, and the main competitors per segment. " +
			"Distinguish structural advantages from temporary ones.",
	},
	{
		ID: "strategy-outlook", Number: 8, Title: "Strategy and Outlook",
		Specs: "State the announced strategy, medium-term targets and management guidance, with the dates " +
			"they were communicated. Contrast stated ambitions with delivered results.",
	},
	{
		ID: "financial-overview", Number: 9, Title: "Financial Overview",
		Specs: "Present revenues, EBITDA, operating profit, net income and key margins for the disclosed periods " +
			"in a data table. Calculate EBITDA as operating profit plus depreciation and amortization when not disclosed, " +
			"marking derived figures with [calc].",
	},
	{
		ID: "revenue-analysis", Number: 10, Title: "Revenue Analysis",
		Specs: "Break down revenue by segment, geography and, where disclosed, organic vs inorganic growth. " +
			"Explain the main growth drivers and headwinds per period.",
	},
	{
		ID: "profitability", Number: 11, Title: "Profitability and Margins",
		Specs: "Analyze gross, EBITDA and operating margins over time, the drivers behind margin movements, " +
			"and profitability relative to disclosed peer or segment data.",
	},
	{
		ID: "balance-sheet", Number: 12, Title: "Balance Sheet and Leverage",
		Specs: "Cover net debt, leverage ratios, maturity profile, covenants and pension obligations. " +
			"Mark calculated ratios with [calc] and reference the balance sheet date.",
	},
	{
		ID: "cash-flow", Number: 13, Title: "Cash Flow and Capital Allocation",
		Specs: "Analyze operating cash flow, capex, working capital swings, dividends and buybacks. " +
			"Assess how capital allocation matches the stated strategy.",
	},
	{
		ID: "segment-performance", Number: 14, Title: "Segment Performance",
		Specs: "For each reporting segment: revenue, profit contribution and trajectory, ordered by importance. " +
			"Flag segments whose disclosed performance diverges from group commentary.",
	},
	{
		ID: "geographic-breakdown", Number: 15, Title: "Geographic Breakdown",
		Specs: "Break down revenue and, where disclosed, assets and employees by region. " +
			"Note concentration risks and currency exposures.",
	},
	{
		ID: "risk-factors", Number: 16, Title: "Risk Factors",
		Specs: "Summarize the most material disclosed risks and any risks evident from the documents but " +
			"not prominently disclosed, most material first.",
	},
	{
		ID: "regulatory-environment", Number: 17, Title: "Regulatory Environment",
		Specs: "Describe the regulatory regimes the company operates under, pending regulatory changes and " +
			"ongoing proceedings, with their potential financial impact where stated.",
	},
	{
		ID: "esg-sustainability", Number: 18, Title: "ESG and Sustainability",
		Specs: "Cover emissions targets, social metrics and governance practices as disclosed. " +
			"Contrast targets with reported progress and note gaps.",
	},
	{
		ID: "recent-developments", Number: 19, Title: "Recent Developments",
		Specs: "List material events from the most recent documents: transactions, management changes, " +
			"guidance revisions, litigation. Most recent first, each dated.",
	},
	{
		ID: "swot-analysis", Number: 20, Title: "SWOT Analysis",
		Specs: "Synthesize strengths, weaknesses, opportunities and threats from the preceding analysis. " +
			"Every point must trace back to a documented fact; highlight non-obvious, multi-step insights.",
		DependsOn: []string{"financial-overview", "market-position"},
	},
	{
		ID: "valuation-considerations", Number: 21, Title: "Valuation Considerations",
		Specs: "Discuss the drivers a valuation would hinge on: earnings quality, growth durability, leverage, " +
			"and disclosed multiples or transaction benchmarks. No price target.",
		DependsOn: []string{"financial-overview"},
	},
}

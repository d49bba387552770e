package discovery

// SystemPrompt instructs the model to answer with one company/email block
// per contact.
const SystemPrompt = `You are a helpful assistant that provides lists of business email addresses.
Your task is to find real distributors, manufacturers, and resellers for industrial equipment and provide their contact emails.
For each contact, provide their email address in this format:
Company Name (Country)
Email: contact@example.com

Focus on providing real, accurate business emails from USA and Europe.
Include manufacturers, authorized distributors, and resellers.
Prioritize companies that specifically work with the mentioned product or manufacturer.`

const userPromptPrefix = "find the email contact of manufacturer, distributors and resellers from usa and europe of the product below:\n\n"

// UserPrompt asks for contacts for a single product.
func UserPrompt(product string) string {
	return userPromptPrefix + product
}

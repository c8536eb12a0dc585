package responder

import (
	"errors"
	"fmt"
	"strings"
)

// NamePlaceholder is substituted with the user's display name in
// authenticated templates.
const NamePlaceholder = "{name}"

// DefaultCallToAction is appended to every reply given to anonymous users.
const DefaultCallToAction = "Vui lòng [đăng ký](#/register) hoặc [đăng nhập](#/login) để sử dụng đầy đủ các tính năng."

// Rule names of the built-in rule set, in priority order.
const (
	RuleAppointment  = "appointment"
	RuleDoctor       = "doctor"
	RuleDonation     = "donation"
	RuleAssistance   = "assistance"
	RuleThanks       = "thanks"
	RuleRegistration = "registration"
	RuleLogin        = "login"
	RuleFallback     = "fallback"
)

var errBlankTemplate = errors.New("template is blank")

// Rule pairs a set of trigger substrings with the reply templates used when
// one of them occurs in the user's message.
type Rule struct {
	Name          string   `mapstructure:"name"          validate:"required"`
	Triggers      []string `mapstructure:"triggers"      validate:"required,min=1,dive,required"`
	Authenticated string   `mapstructure:"authenticated" validate:"required"`
	Anonymous     string   `mapstructure:"anonymous"     validate:"required"`
}

func (r Rule) validateTemplates() error {
	if strings.TrimSpace(r.Authenticated) == "" {
		return fmt.Errorf("authenticated %w", errBlankTemplate)
	}
	if strings.TrimSpace(r.Anonymous) == "" {
		return fmt.Errorf("anonymous %w", errBlankTemplate)
	}
	if strings.Contains(r.Anonymous, NamePlaceholder) {
		return fmt.Errorf("anonymous template must not contain %s", NamePlaceholder)
	}
	return nil
}

// DefaultRules returns the built-in rule set in priority order:
// appointment, doctor, donation, assistance, thanks, registration, login.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:          RuleAppointment,
			Triggers:      []string{"đặt lịch", "lịch hẹn", "lịch khám", "đặt hẹn", "appointment", "booking"},
			Authenticated: "Chào {name}! Bạn có thể đặt lịch khám tại [Đặt lịch hẹn](#/appointments/new). Hãy chọn chuyên khoa, bác sĩ và khung giờ phù hợp, chúng tôi sẽ xác nhận lịch hẹn qua email.",
			Anonymous:     "Để đặt lịch khám, bạn cần có tài khoản trên hệ thống. Sau khi đăng nhập, bạn có thể chọn chuyên khoa, bác sĩ và khung giờ phù hợp.",
		},
		{
			Name:          RuleDoctor,
			Triggers:      []string{"bác sĩ", "chuyên khoa", "doctor", "specialist", "specialty"},
			Authenticated: "{name} có thể xem danh sách bác sĩ và chuyên khoa tại [Đội ngũ bác sĩ](#/doctors). Mỗi hồ sơ đều có lịch làm việc và đánh giá của bệnh nhân.",
			Anonymous:     "Bạn có thể xem danh sách bác sĩ và chuyên khoa tại [Đội ngũ bác sĩ](#/doctors).",
		},
		{
			Name:          RuleDonation,
			Triggers:      []string{"quyên góp", "ủng hộ", "từ thiện", "donate", "donation"},
			Authenticated: "Cảm ơn {name} đã quan tâm đến hoạt động thiện nguyện! Bạn có thể quyên góp tại [Quyên góp](#/donate) và theo dõi các khoản đóng góp trong [Tài khoản của tôi](#/profile).",
			Anonymous:     "Cảm ơn bạn đã quan tâm đến hoạt động thiện nguyện! Các chiến dịch đang gây quỹ được liệt kê tại [Quyên góp](#/donate).",
		},
		{
			Name:          RuleAssistance,
			Triggers:      []string{"hỗ trợ", "giúp", "help", "support"},
			Authenticated: "{name} cần hỗ trợ gì? Tôi có thể hướng dẫn đặt lịch khám, tìm bác sĩ hoặc quyên góp. Nếu cần gặp nhân viên, hãy gửi yêu cầu tại [Yêu cầu hỗ trợ](#/assistance).",
			Anonymous:     "Tôi có thể hướng dẫn đặt lịch khám, tìm bác sĩ hoặc quyên góp. Nếu cần gặp nhân viên, hãy gửi yêu cầu tại [Yêu cầu hỗ trợ](#/assistance).",
		},
		{
			Name:          RuleThanks,
			Triggers:      []string{"cảm ơn", "cám ơn", "thank"},
			Authenticated: "Không có gì, {name}! Rất vui được đồng hành cùng bạn. Chúc bạn một ngày tốt lành.",
			Anonymous:     "Không có gì! Rất vui được đồng hành cùng bạn.",
		},
		{
			Name:          RuleRegistration,
			Triggers:      []string{"đăng ký", "đăng kí", "register", "sign up", "tạo tài khoản"},
			Authenticated: "{name} đã có tài khoản và đang đăng nhập nên không cần đăng ký thêm. Thông tin cá nhân có thể cập nhật tại [Tài khoản của tôi](#/profile).",
			Anonymous:     "Đăng ký tài khoản hoàn toàn miễn phí và chỉ mất vài phút. Bạn cần email và số điện thoại để xác thực.",
		},
		{
			Name:          RuleLogin,
			Triggers:      []string{"đăng nhập", "login", "log in", "sign in"},
			Authenticated: "{name} đang đăng nhập rồi. Nếu muốn đổi tài khoản, hãy đăng xuất tại [Tài khoản của tôi](#/profile).",
			Anonymous:     "Bạn có thể đăng nhập bằng email và mật khẩu đã đăng ký. Nếu quên mật khẩu, hãy dùng chức năng khôi phục ở trang đăng nhập.",
		},
	}
}

// DefaultFallback is used when no rule matches.
func DefaultFallback() Rule {
	return Rule{
		Name:          RuleFallback,
		Authenticated: "Xin lỗi {name}, tôi chưa hiểu câu hỏi của bạn. Bạn có thể hỏi về đặt lịch khám, bác sĩ, quyên góp hoặc cần hỗ trợ.",
		Anonymous:     "Xin lỗi, tôi chưa hiểu câu hỏi của bạn. Bạn có thể hỏi về đặt lịch khám, bác sĩ, quyên góp hoặc cần hỗ trợ.",
	}
}
